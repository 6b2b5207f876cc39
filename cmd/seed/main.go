// Command seed fills the database with demo users, follows, posts and
// learning plans.
package main

import (
	"context"
	"flag"
	"log"

	"skillshare/internal/config"
	"skillshare/internal/database"
	"skillshare/internal/seed"
)

func main() {
	opts := seed.Options{}
	flag.IntVar(&opts.NumUsers, "users", 50, "Number of users to create")
	flag.IntVar(&opts.NumPosts, "posts", 200, "Number of posts to create")
	flag.IntVar(&opts.FollowsPerUser, "follows", 8, "Accounts each user follows")
	flag.IntVar(&opts.PlansPerUser, "plans", 2, "Learning plans per user")
	flag.IntVar(&opts.ProgressPerUser, "progress", 3, "Journal entries per user")
	flag.IntVar(&opts.CommentsPerPost, "comments", 3, "Maximum comments per post")
	flag.IntVar(&opts.MaxDays, "max-days", 90, "Spread timestamps over this many days")
	flag.Int64Var(&opts.RandomSeed, "rand-seed", 0, "Random seed; 0 picks one from the clock")
	flag.BoolVar(&opts.ShouldClean, "clean", true, "Clean database before seeding")
	flag.BoolVar(&opts.SkipBcrypt, "fast", false, "Store plain passwords (local throwaway databases only)")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "Build data without writing it")
	preset := flag.String("preset", "", "Apply a named preset (tiny, demo, load, web)")
	presetFile := flag.String("preset-file", "", "YAML file with extra presets")
	flag.Parse()

	log.Println("🌱 Database Seeder")

	if *preset != "" {
		presets, err := seed.LoadPresets(*presetFile)
		if err != nil {
			log.Fatalf("Failed to load presets: %v", err)
		}
		if opts, err = seed.ApplyPreset(opts, presets, *preset); err != nil {
			log.Fatalf("❌ %v", err)
		}
		log.Printf("Applying preset: %s", *preset)
	}
	log.Printf("Target: %d users, %d posts, clean=%v dry-run=%v", opts.NumUsers, opts.NumPosts, opts.ShouldClean, opts.DryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() && !opts.DryRun {
		log.Fatal("❌ refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	report, err := seed.NewSeeder(db, opts).Run(context.Background())
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %s", report)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
