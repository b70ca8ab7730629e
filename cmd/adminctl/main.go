package main // Interactive admin console for operator tasks

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/task-tracker/internal/config"
	"github.com/iliyamo/task-tracker/internal/database"
	"github.com/iliyamo/task-tracker/internal/repository"
)

const helpText = `commands:
  help                 show this message
  add_user             create a user interactively (admin flag included)
  list_users           print all users
  exit                 quit the console`

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	users := repository.NewUserRepo(db)
	in := bufio.NewScanner(os.Stdin)

	fmt.Println("task-tracker admin console. Type 'help' for commands.")
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		switch strings.TrimSpace(in.Text()) {
		case "":
			continue
		case "help":
			fmt.Println(helpText)
		case "add_user":
			addUser(in, users, cfg.BcryptCost)
		case "list_users":
			listUsers(users)
		case "exit", "quit":
			return
		default:
			fmt.Println("unknown command; type 'help'")
		}
	}
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func addUser(in *bufio.Scanner, users *repository.UserRepo, cost int) {
	username := prompt(in, "username: ")
	email := prompt(in, "email: ")
	password := prompt(in, "password: ")
	if username == "" || email == "" || password == "" {
		fmt.Println("username, email and password are all required")
		return
	}
	isAdmin := strings.EqualFold(prompt(in, "admin? [y/N]: "), "y")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := users.Create(ctx, username, email, password, isAdmin, cost)
	if err != nil {
		switch err {
		case repository.ErrUsernameExists:
			fmt.Println("username already exists")
		case repository.ErrEmailExists:
			fmt.Println("email already exists")
		default:
			fmt.Printf("create failed: %v\n", err)
		}
		return
	}
	fmt.Printf("created user %d (%s, admin=%v)\n", id, username, isAdmin)
}

func listUsers(users *repository.UserRepo) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	all, err := users.List(ctx)
	if err != nil {
		fmt.Printf("query failed: %v\n", err)
		return
	}
	for _, u := range all {
		fmt.Printf("%6d  %-20s  %-30s  admin=%v\n", u.ID, u.Username, u.Email, u.IsAdmin)
	}
}
