package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kazz187/missioncontrol/internal/app"
	"github.com/kazz187/missioncontrol/internal/config"
	"github.com/kazz187/missioncontrol/pkg/cerr"
)

var (
	cli = kingpin.New("missionctl", "Operate the mission control task board and war room")

	overviewCmd = cli.Command("overview", "Show agents, tasks and recent war room messages")

	taskCmd = cli.Command("task", "Task commands")

	taskCreateCmd     = taskCmd.Command("create", "Queue a new task")
	taskCreateTitle   = taskCreateCmd.Arg("title", "Task title").Required().String()
	taskCreateAgent   = taskCreateCmd.Flag("agent", "Agent to assign").Short('a').Required().String()
	taskCreateDetails = taskCreateCmd.Flag("details", "Task details").Short('d').String()

	taskListCmd = taskCmd.Command("list", "List tasks, newest first")

	taskDispatchCmd = taskCmd.Command("dispatch", "Run a queued task on its agent")
	taskDispatchID  = taskDispatchCmd.Arg("id", "Task ID").Required().String()

	warRoomCmd = cli.Command("warroom", "War room commands")

	warRoomShowCmd = warRoomCmd.Command("show", "Show recent war room messages")

	warRoomPostCmd    = warRoomCmd.Command("post", "Post a message and collect agent replies")
	warRoomPostText   = warRoomPostCmd.Arg("text", "Message text; @agent mentions pick responders").Required().String()
	warRoomPostAuthor = warRoomPostCmd.Flag("author", "Message author").String()
)

func main() {
	command := kingpin.MustParse(cli.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env: %v\n", err)
		os.Exit(1)
	}
	app.SetupLogger(env)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := app.New(ctx, env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up: %v\n", err)
		os.Exit(1)
	}

	out, err := run(ctx, a, command)
	if err != nil {
		// A failed dispatch still prints the task in its final state.
		var cErr *cerr.Error
		if errors.As(err, &cErr) && cErr.Details != nil {
			_ = printJSON(cErr.Details)
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", describe(err))
		os.Exit(1)
	}
	if err := printJSON(out); err != nil {
		fmt.Fprintf(os.Stderr, "failed to print result: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, command string) (any, error) {
	switch command {
	case overviewCmd.FullCommand():
		return a.Overview.GetOverview(ctx)
	case taskCreateCmd.FullCommand():
		return a.Tasks.CreateTask(ctx, *taskCreateTitle, *taskCreateDetails, *taskCreateAgent)
	case taskListCmd.FullCommand():
		return a.Tasks.ListTasks(ctx)
	case taskDispatchCmd.FullCommand():
		return a.Tasks.DispatchTask(ctx, *taskDispatchID)
	case warRoomShowCmd.FullCommand():
		return a.WarRoom.RecentMessages(ctx)
	case warRoomPostCmd.FullCommand():
		return a.WarRoom.PostMessage(ctx, *warRoomPostAuthor, *warRoomPostText)
	}
	return nil, fmt.Errorf("unknown command %q", command)
}

func describe(err error) string {
	var cErr *cerr.Error
	if errors.As(err, &cErr) {
		return fmt.Sprintf("%s: %s", cErr.Code, cErr.Msg)
	}
	return err.Error()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
