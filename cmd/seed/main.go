// Command seed prepares a database for local use: demo data, legacy kind
// normalisation and bearer tokens for testing the APIs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"enquete-backend/internal/config"
	"enquete-backend/internal/db"
	"enquete-backend/internal/model"
	"enquete-backend/internal/service"
	"enquete-backend/utilities"
)

func main() {
	configPath := flag.String("config", "config.xml", "path to the XML configuration")
	demo := flag.Bool("demo", false, "create the demo survey")
	normalize := flag.Bool("normalize-kinds", false, "rewrite legacy question kinds")
	tokenFor := flag.Uint("token", 0, "print a bearer token for this account id")
	username := flag.String("username", "", "username embedded in the token")
	email := flag.String("email", "", "email embedded in the token")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *tokenFor != 0 {
		tokens := utilities.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.TokenIssuer)
		token, err := tokens.GenerateToken(model.Account{ID: uint(*tokenFor), Username: *username, Email: *email})
		if err != nil {
			log.Fatalf("failed to sign token: %v", err)
		}
		fmt.Println(token)
	}
	if !*demo && !*normalize {
		return
	}

	conn, err := db.InitDBFromConfig(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	if *normalize {
		n, err := service.NewSurveyService(conn).NormalizeQuestionKinds(context.Background())
		if err != nil {
			log.Fatalf("failed to normalize question kinds: %v", err)
		}
		if n == 0 {
			utilities.Info("no question needed a kind update")
		} else {
			utilities.Info("%d questions updated", n)
		}
	}

	if *demo {
		survey, created, err := createDemo(conn)
		if err != nil {
			log.Fatalf("failed to create demo data: %v", err)
		}
		if created {
			utilities.Info("demo survey %d created", survey.ID)
		} else {
			utilities.Info("demo survey %d already exists", survey.ID)
		}
	}
}
