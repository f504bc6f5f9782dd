package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"equipapi/pkg/apperr"
	"equipapi/pkg/cli"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/create_user <name> <email> [password]")
		os.Exit(2)
	}
	name, email := os.Args[1], os.Args[2]

	var password string
	if len(os.Args) > 3 {
		password = os.Args[3]
	} else {
		var err error
		if password, err = cli.ReadPassword("password: "); err != nil {
			log.Fatalf("read password: %v", err)
		}
	}

	ctx := context.Background()
	svc, closeDB, err := cli.AuthService(ctx)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer closeDB()

	user, err := svc.CreateUser(ctx, name, email, password)
	if err != nil {
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			for field, msgs := range ve.Fields {
				fmt.Fprintf(os.Stderr, "%s: %v\n", field, msgs)
			}
			os.Exit(1)
		}
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d\n", user.Email, user.ID)
}
