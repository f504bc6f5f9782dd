package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"equipapi/pkg/apperr"
	"equipapi/pkg/cli"
)

func main() {
	email := flag.String("email", "", "email of the user to reset")
	password := flag.String("password", "", "new plaintext password (prompted when empty)")
	flag.Parse()
	if *email == "" {
		log.Fatal("--email is required")
	}
	if *password == "" {
		p, err := cli.ReadPassword("new password: ")
		if err != nil {
			log.Fatalf("read password: %v", err)
		}
		*password = p
	}

	ctx := context.Background()
	svc, closeDB, err := cli.AuthService(ctx)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer closeDB()

	if err := svc.ResetPassword(ctx, *email, *password); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Fatalf("user %s not found", *email)
		}
		log.Fatalf("reset failed: %v", err)
	}
	fmt.Printf("Password reset for user %s; all tokens revoked\n", *email)
}
