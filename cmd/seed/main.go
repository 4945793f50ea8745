// Package main implements the word pack importer. It loads categories from a
// JSON pack file and/or the built-in starter pack into the configured
// database so the daily generator has material to draw from.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/tidwall/gjson"

	_ "github.com/lib/pq"

	domain "github.com/TylMus/tylmus-backend/internal/app/domain/game"
	"github.com/TylMus/tylmus-backend/internal/app/storage"
	"github.com/TylMus/tylmus-backend/internal/app/storage/postgres"
	"github.com/TylMus/tylmus-backend/internal/config"
	"github.com/TylMus/tylmus-backend/internal/platform/migrations"
)

// starterPack seeds a fresh install with enough Russian categories to rotate
// boards for a while. Categories with more than four words contribute their
// first four in stored order.
var starterPack = []domain.Category{
	{Name: "Фрукты", Words: []string{"Яблоко", "Банан", "Апельсин", "Виноград", "Груша", "Персик"}},
	{Name: "Животные", Words: []string{"Кошка", "Собака", "Лошадь", "Корова", "Волк", "Лиса"}},
	{Name: "Цвета", Words: []string{"Красный", "Синий", "Зеленый", "Желтый", "Белый", "Черный"}},
	{Name: "Города", Words: []string{"Москва", "Париж", "Лондон", "Токио", "Берлин", "Мадрид"}},
	{Name: "Профессии", Words: []string{"Врач", "Учитель", "Повар", "Инженер", "Юрист"}},
	{Name: "Напитки", Words: []string{"Чай", "Кофе", "Сок", "Квас", "Морс"}},
	{Name: "Овощи", Words: []string{"Морковь", "Огурец", "Капуста", "Картофель", "Свекла"}},
	{Name: "Инструменты", Words: []string{"Молоток", "Отвертка", "Пила", "Рубанок", "Клещи"}},
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(filepath.Clean(path))
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML configuration file (default config/config.yaml)")
		envFile    = flag.String("env", "", "Optional .env file loaded before reading configuration")
		packFile   = flag.String("file", "", "JSON word pack to import ({\"categories\": [{\"name\", \"words\"}]})")
		starter    = flag.Bool("starter", false, "Import the built-in Russian starter pack")
		replace    = flag.Bool("replace", false, "Delete all existing categories before importing")
	)
	flag.Parse()

	if *packFile == "" && !*starter {
		log.Fatalf("nothing to import: pass -file and/or -starter")
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("load env (%s): %v", *envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.DSN == "" {
		log.Fatalf("DATABASE_URL not set; importing requires a database")
	}

	var categories []domain.Category
	if *starter {
		categories = append(categories, starterPack...)
	}
	if *packFile != "" {
		data, err := readFile(*packFile)
		if err != nil {
			log.Fatalf("read pack (%s): %v", *packFile, err)
		}
		parsed, err := parsePack(data)
		if err != nil {
			log.Fatalf("parse pack (%s): %v", *packFile, err)
		}
		categories = append(categories, parsed...)
	}

	ctx := context.Background()

	db, err := sqlx.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db.DB); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	store := postgres.New(db)

	if *replace {
		existing, err := store.ListCategories(ctx)
		if err != nil {
			log.Fatalf("list existing categories: %v", err)
		}
		for _, c := range existing {
			if err := store.DeleteCategory(ctx, c.ID); err != nil {
				log.Fatalf("delete category %q: %v", c.Name, err)
			}
		}
		if len(existing) > 0 {
			fmt.Printf("Removed %d existing categories\n", len(existing))
		}
	}

	var created, skipped, words int
	for _, c := range categories {
		saved, err := store.CreateCategory(ctx, c)
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				skipped++
				continue
			}
			log.Fatalf("create category %q: %v", c.Name, err)
		}
		created++
		words += len(saved.Words)
	}

	fmt.Printf("Imported %d categories (%d words), skipped %d duplicates\n", created, words, skipped)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

// parsePack decodes a {"categories": [{"name", "words"}]} document. Entries
// must carry a name and at least one non-blank word.
func parsePack(data []byte) ([]domain.Category, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("not valid JSON")
	}
	list := gjson.GetBytes(data, "categories")
	if !list.IsArray() {
		return nil, fmt.Errorf("missing categories array")
	}

	var out []domain.Category
	for i, entry := range list.Array() {
		name := strings.TrimSpace(entry.Get("name").String())
		if name == "" {
			return nil, fmt.Errorf("categories[%d]: name is required", i)
		}
		var words []string
		for _, w := range entry.Get("words").Array() {
			if word := strings.TrimSpace(w.String()); word != "" {
				words = append(words, word)
			}
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("categories[%d] (%s): at least one word is required", i, name)
		}
		out = append(out, domain.Category{Name: name, Words: words})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("pack contains no categories")
	}
	return out, nil
}
