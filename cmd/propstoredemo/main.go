package main

import (
	"flag"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"agentsim/internal/core/propstore"
)

type Age int
type Risk string

// loadConfig reads a propstore.Config from a YAML file at path,
// falling back to propstore.DefaultConfig() if path is empty or does
// not exist.
func loadConfig(path string) propstore.Config {
	cfg := propstore.DefaultConfig()
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg
		}
		log.Fatal(err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatal(err)
	}
	return cfg
}

func main() {
	configPath := flag.String("config", "propstoredemo.yaml", "path to a YAML config file")
	flag.Parse()

	cfg := loadConfig(*configPath)
	if cfg.EnableDebugMode {
		log.Printf("config: %+v", cfg)
	}

	table := propstore.NewEntityTable()
	age := propstore.RegisterProperty[Age](table)
	risk := propstore.RegisterProperty[Risk](table, propstore.Required())
	propstore.RegisterDerived[bool](table, "senior", propstore.Dependencies{Properties: propstore.Deps(age)}, func(ctx propstore.ComputeContext) (bool, bool) {
		a, ok := propstore.Dep(ctx, age)
		return ok && a >= 65, true
	})

	if _, err := propstore.AddEntity(table, propstore.Init(age, Age(42)), propstore.Init(risk, Risk("High"))); err != nil {
		log.Fatal(err)
	}

	propstore.IndexProperty[Risk](table)

	matches := propstore.QueryEntities(table, propstore.Pred(risk, Risk("High")))
	log.Printf("entities with Risk=High: %v", matches)
}
