package screens

import (
	"context"
	"log"
	"strings"

	"gym-buddy/internal/navigation"
	"gym-buddy/internal/session"
)

func (s *Shell) renderAuth() {
	s.println("Gym Buddy - find your workout partner")
	s.println("Log in with 'login <email> <password>' or create an account with 'signup <email> <password> <name>'.")
}

func (s *Shell) authCommand(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login", "signup":
	default:
		s.printf("Unknown command %q. Type 'help'.\n", cmd)
		return nil
	}

	var email, password string
	if len(args) > 0 {
		email = args[0]
	}
	if len(args) > 1 {
		password = args[1]
	}
	if email == "" || password == "" {
		s.println("Error: Please enter both email and password")
		return nil
	}

	var err error
	if cmd == "login" {
		err = s.store.Login(ctx, email, password)
	} else {
		name := strings.TrimSpace(strings.Join(args[2:], " "))
		if name == "" {
			s.println("Error: Please enter your name")
			return nil
		}
		err = s.store.Signup(ctx, email, password, name)
	}
	if err != nil {
		s.printf("Error: %s\n", session.AuthErrorMessage(err))
		return nil
	}

	// 会话变化是异步到达的，等路由离开登录页
	return s.waitUntil(ctx, func(st navigation.State) bool {
		return st == navigation.ProfileIncomplete || st == navigation.MainApp
	})
}

func (s *Shell) logout(ctx context.Context) error {
	if err := s.store.Logout(ctx); err != nil {
		log.Printf("退出登录失败: %v", err)
		s.showError("Logout failed", err)
	}
	return s.waitUntil(ctx, func(st navigation.State) bool { return st == navigation.Unauthenticated })
}
