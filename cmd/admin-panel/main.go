package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/tutorhub/tutorhub-api/internal/adminpanel"
	"github.com/tutorhub/tutorhub-api/pkg/config"
	"github.com/tutorhub/tutorhub-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	store := adminpanel.NewStore(cfg.Panel.SessionFile)
	client := adminpanel.NewClient(store, adminpanel.ClientConfig{
		BaseURL: cfg.Panel.APIBaseURL,
		Timeout: cfg.Panel.RequestTimeout,
		OnAuthFailure: func() {
			fmt.Println("Session expired. Please log in again.")
		},
		Logger: logr,
	})

	stdin := bufio.NewReader(os.Stdin)
	confirm := func(prompt string) bool {
		fmt.Printf("%s [y/N]: ", prompt)
		line, err := stdin.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}

	panel := adminpanel.NewPanel(client, confirm, logr)
	ctx := context.Background()

	if !store.HasToken() {
		if err := login(ctx, client, stdin); err != nil {
			fmt.Println("Login failed:", err)
			os.Exit(1)
		}
	}
	if profile, ok := store.Profile(); ok {
		fmt.Printf("Signed in as %s (%s)\n", profile.Name, profile.Email)
	}

	panel.RefreshAll(ctx)
	printStatus(panel)

	fmt.Println(`Type "help" for commands.`)
	for {
		fmt.Print("> ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			printHelp()
		case "refresh":
			panel.RefreshAll(ctx)
			printStatus(panel)
		case "students":
			printStudents(panel.Students())
		case "teachers":
			printTeachers(panel.Teachers())
		case "courses":
			printCourses(panel.Courses())
		case "payments":
			for _, p := range panel.Payments() {
				fmt.Printf("%s  %s  %.2f %s  %s\n", p.ID, p.StudentID, p.Amount, p.Currency, p.Status)
			}
		case "enrollments":
			for _, e := range panel.Enrollments() {
				fmt.Printf("%s  student=%s course=%s  %s\n", e.ID, e.StudentID, e.CourseID, e.Status)
			}
		case "payouts":
			for _, p := range panel.PayoutSettings() {
				name := p.TutorName
				if name == "" {
					name = p.TutorID
				}
				fmt.Printf("%s  %-24s %-14s %-24s %.1f%%\n", p.ID, name, p.Method, p.AccountIdentifier, p.CommissionPercent)
			}
		case "sessions":
			for _, s := range panel.Sessions() {
				fmt.Printf("%s  student=%s course=%s  %s  %dmin  %s\n",
					s.Key(), s.StudentID, s.CourseID, s.Start(), s.DurationMinutes, s.Status)
			}
		case "approve", "block", "unblock", "delete":
			if len(args) != 1 {
				fmt.Printf("usage: %s <user-id>\n", cmd)
				continue
			}
			user, ok := findUser(panel, args[0])
			if !ok {
				fmt.Println("No such user in the loaded lists. Run refresh first.")
				continue
			}
			panel.PerformAction(ctx, user, adminpanel.Action(cmd))
			printStatus(panel)
		case "schedule":
			in, err := readSessionInput(args)
			if err != nil {
				fmt.Println(err)
				continue
			}
			panel.ScheduleSession(ctx, in)
			printStatus(panel)
		case "reschedule":
			if len(args) < 1 {
				fmt.Println("usage: reschedule <session-id> <student> <course> <time> <minutes> [mode]")
				continue
			}
			in, err := readSessionInput(args[1:])
			if err != nil {
				fmt.Println(err)
				continue
			}
			panel.UpdateSession(ctx, args[0], in)
			printStatus(panel)
		case "cancel-session":
			if len(args) != 1 {
				fmt.Println("usage: cancel-session <session-id>")
				continue
			}
			panel.DeleteSession(ctx, args[0])
			printStatus(panel)
		case "clear-all":
			panel.ClearAllData(ctx)
			printStatus(panel)
		case "login":
			if err := login(ctx, client, stdin); err != nil {
				fmt.Println("Login failed:", err)
				continue
			}
			panel.RefreshAll(ctx)
			printStatus(panel)
		case "logout":
			if err := client.Logout(); err != nil {
				fmt.Println("Logout failed:", err)
			}
			fmt.Println("Signed out.")
		case "quit", "exit":
			return
		default:
			fmt.Printf("Unknown command %q. Type \"help\".\n", cmd)
		}
	}
}

func login(ctx context.Context, client *adminpanel.Client, stdin *bufio.Reader) error {
	fmt.Print("Email: ")
	email, err := stdin.ReadString('\n')
	if err != nil {
		return err
	}

	fmt.Print("Password: ")
	var password string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return err
		}
		password = string(raw)
	} else {
		line, err := stdin.ReadString('\n')
		if err != nil {
			return err
		}
		password = strings.TrimSpace(line)
	}

	profile, err := client.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s.\n", profile.Name)
	return nil
}

func findUser(panel *adminpanel.Panel, id string) (adminpanel.UserRecord, bool) {
	for _, u := range panel.Students() {
		if u.ID == id {
			return u, true
		}
	}
	for _, u := range panel.Teachers() {
		if u.ID == id {
			return u, true
		}
	}
	return adminpanel.UserRecord{}, false
}

func readSessionInput(args []string) (adminpanel.SessionInput, error) {
	if len(args) < 4 {
		return adminpanel.SessionInput{}, fmt.Errorf("usage: schedule <student> <course> <time> <minutes> [mode]")
	}
	minutes, err := strconv.Atoi(args[3])
	if err != nil {
		return adminpanel.SessionInput{}, fmt.Errorf("minutes must be a number: %w", err)
	}
	in := adminpanel.SessionInput{
		StudentID:       args[0],
		CourseID:        args[1],
		ScheduledAt:     args[2],
		DurationMinutes: minutes,
		Mode:            "online",
	}
	if len(args) > 4 {
		in.Mode = args[4]
	}
	return in, nil
}

func printStudents(students []adminpanel.UserRecord) {
	buckets := adminpanel.BucketStudents(students)
	fmt.Printf("Requests (%d) / Accepted (%d) / Enrolled (%d)\n",
		len(buckets.Requests), len(buckets.Accepted), len(buckets.Enrolled))
	for _, u := range students {
		marker := " "
		if adminpanel.IsFakeUser(u) {
			marker = "!"
		}
		fmt.Printf("%s %s  %-24s %-28s %s\n", marker, u.ID, u.Name, u.Email, adminpanel.StudentBadge(u))
	}
}

func printTeachers(teachers []adminpanel.UserRecord) {
	for _, u := range teachers {
		state := "Pending"
		if adminpanel.CanApproveTeacher(u) {
			state = "Needs approval"
		} else if u.IsApproved != nil && *u.IsApproved {
			state = "Approved"
		}
		if u.IsBlocked {
			state = "Blocked"
		}
		marker := " "
		if adminpanel.IsFakeUser(u) {
			marker = "!"
		}
		fmt.Printf("%s %s  %-24s %-28s %s\n", marker, u.ID, u.Name, u.Email, state)
	}
}

func printCourses(courses []adminpanel.CourseRecord) {
	for _, c := range courses {
		fmt.Printf("%s  %-32s %-16s %s\n", c.ID, c.Title, c.Subject, adminpanel.CourseDisplayLabel(c))
	}
}

func printStatus(panel *adminpanel.Panel) {
	if msg := panel.Error(); msg != "" {
		fmt.Println("Error:", msg)
		return
	}
	if msg := panel.Message(); msg != "" {
		fmt.Println(msg)
	}
}

func printHelp() {
	fmt.Println(`Commands:
  refresh                        reload every list from the server
  students | teachers | courses  show loaded records
  payments | enrollments | sessions | payouts
  approve <user-id>              approve a student or teacher
  block | unblock | delete <user-id>
  schedule <student> <course> <time> <minutes> [mode]
  reschedule <session-id> <student> <course> <time> <minutes> [mode]
  cancel-session <session-id>
  clear-all                      wipe sessions and students (asks first)
  login | logout | quit`)
}
