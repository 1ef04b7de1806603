package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"taskboard/internal/client"
	"taskboard/internal/config"
	"taskboard/internal/domain"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadClientConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	api, err := client.New(cfg.APIURL, logger)
	if err != nil {
		log.Fatal(err)
	}

	email := cfg.Email
	if email == "" {
		email = prompt(reader, "Email: ")
	}
	password := cfg.Password
	if password == "" {
		password = prompt(reader, "Password: ")
	}

	user, err := api.SignIn(ctx, email, password)
	if err != nil {
		log.Fatalf("sign in: %v", err)
	}
	fmt.Printf("Signed in as %s <%s>\n", user.Name, user.Email)
	defer func() {
		if err := api.SignOut(ctx); err != nil {
			logger.Warn("sign out failed", zap.Error(err))
		}
	}()

	for {
		fmt.Println("===== Taskboard =====")
		fmt.Println("[B] Show board")
		fmt.Println("[E] Edit task title")
		fmt.Println("[I] Invite team member")
		fmt.Println("[Q] Quit")
		switch strings.ToUpper(prompt(reader, "Select: ")) {
		case "B":
			project, ok := chooseProject(ctx, reader, api)
			if !ok {
				continue
			}
			printBoard(ctx, api, project)
		case "E":
			editTitleFlow(ctx, reader, api, logger)
		case "I":
			inviteFlow(ctx, reader, api)
		case "Q":
			return
		default:
			fmt.Println("Invalid option.")
		}
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func chooseIndex(reader *bufio.Reader, label string, n int) (int, bool) {
	idx, err := strconv.Atoi(prompt(reader, label))
	if err != nil || idx < 1 || idx > n {
		fmt.Println("Invalid selection.")
		return 0, false
	}
	return idx - 1, true
}

func chooseProject(ctx context.Context, reader *bufio.Reader, api *client.Client) (domain.Project, bool) {
	workspaces, err := api.ListWorkspaces(ctx)
	if err != nil {
		fmt.Printf("list workspaces: %v\n", err)
		return domain.Project{}, false
	}
	if len(workspaces) == 0 {
		fmt.Println("No workspaces yet.")
		return domain.Project{}, false
	}
	for i, ws := range workspaces {
		fmt.Printf("[%d] %s\n", i+1, ws.Name)
	}
	wi, ok := chooseIndex(reader, "Workspace: ", len(workspaces))
	if !ok {
		return domain.Project{}, false
	}

	projects, err := api.ListProjects(ctx, workspaces[wi].ID)
	if err != nil {
		fmt.Printf("list projects: %v\n", err)
		return domain.Project{}, false
	}
	if len(projects) == 0 {
		fmt.Println("No projects in this workspace.")
		return domain.Project{}, false
	}
	for i, p := range projects {
		fmt.Printf("[%d] %s (%s)\n", i+1, p.Name, p.Slug)
	}
	pi, ok := chooseIndex(reader, "Project: ", len(projects))
	if !ok {
		return domain.Project{}, false
	}
	return projects[pi], true
}

func printBoard(ctx context.Context, api *client.Client, project domain.Project) []domain.Task {
	columns, err := api.GetBoard(ctx, project.ID)
	if err != nil {
		fmt.Printf("get board: %v\n", err)
		return nil
	}
	var all []domain.Task
	for _, col := range columns {
		fmt.Printf("--- %s (%d) ---\n", col.Name, len(col.Tasks))
		for _, t := range col.Tasks {
			all = append(all, t)
			fmt.Printf("[%d] %s", len(all), t.Title)
			if t.Priority != "" {
				fmt.Printf(" !%s", t.Priority)
			}
			if t.UserEmail != "" {
				fmt.Printf(" @%s", t.UserEmail)
			}
			fmt.Println()
		}
	}
	return all
}

// editTitleFlow guarda cada línea ingresada con el mismo debounce que usa la UI.
func editTitleFlow(ctx context.Context, reader *bufio.Reader, api *client.Client, logger *zap.Logger) {
	project, ok := chooseProject(ctx, reader, api)
	if !ok {
		return
	}
	tasks := printBoard(ctx, api, project)
	if len(tasks) == 0 {
		fmt.Println("No tasks to edit.")
		return
	}
	ti, ok := chooseIndex(reader, "Task: ", len(tasks))
	if !ok {
		return
	}

	editor := client.NewTaskTitleEditor(logger, api, &tasks[ti], client.TitleEditorOptions{
		OnSaving: func(saving bool) {
			if saving {
				fmt.Println("(saving...)")
			}
		},
		OnError: func(err error) { fmt.Printf("save failed: %v\n", err) },
	})
	defer editor.Close()

	fmt.Println("Type new titles; an empty line finishes.")
	for {
		line := prompt(reader, "> ")
		if line == "" {
			break
		}
		editor.SetTitle(line)
	}
}

func inviteFlow(ctx context.Context, reader *bufio.Reader, api *client.Client) {
	form := client.NewInviteForm(api, api, func() { fmt.Println("Invitation sent.") })
	workspaces, err := form.LoadWorkspaces(ctx)
	if err != nil {
		fmt.Printf("list workspaces: %v\n", err)
		return
	}
	for i, ws := range workspaces {
		fmt.Printf("[%d] %s\n", i+1, ws.Name)
	}

	form.SetUserEmail(prompt(reader, "Email: "))
	if idx, err := strconv.Atoi(prompt(reader, "Workspace: ")); err == nil && idx >= 1 && idx <= len(workspaces) {
		form.SetWorkspaceID(workspaces[idx-1].ID)
	}

	if err := form.Submit(ctx); err != nil {
		var fe client.FieldErrors
		if errors.As(err, &fe) {
			for field, msg := range fe {
				fmt.Printf("  %s: %s\n", field, msg)
			}
			return
		}
		fmt.Printf("invite failed: %v\n", err)
		for field, msg := range form.Errors() {
			fmt.Printf("  %s: %s\n", field, msg)
		}
	}
}
