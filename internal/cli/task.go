package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minhng/focusgarden/internal/display"
	"github.com/minhng/focusgarden/internal/state"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage the local study to-do list",
	RunE:  runTaskList,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a to-do",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a to-do as done",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove completed to-dos",
	RunE:  runTaskClear,
}

func init() {
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskClearCmd)
}

func runTaskList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	a.state.View(func(st *state.State) {
		if len(st.Tasks) == 0 {
			fmt.Println(display.Muted("No tasks."))
			return
		}
		fmt.Println(display.Title("Tasks"))
		for _, t := range st.Tasks {
			mark := "[ ]"
			if t.Done {
				mark = "[x]"
			}
			fmt.Printf("  %s %s  %s\n", mark, t.Text, display.Muted(shortID(t.ID)))
		}
	})
	return nil
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	text := strings.Join(args, " ")
	err = a.state.Mutate(func(st *state.State) {
		st.Tasks = append(st.Tasks, state.Task{
			ID:        uuid.New().String(),
			Text:      text,
			CreatedTs: time.Now().UnixMilli(),
		})
	})
	if err != nil {
		fmt.Println(display.Warning("task not persisted"))
	}
	fmt.Println(display.Success("Task added"))
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	found := false
	_ = a.state.Mutate(func(st *state.State) {
		for i := range st.Tasks {
			if strings.HasPrefix(st.Tasks[i].ID, args[0]) {
				st.Tasks[i].Done = true
				found = true
				return
			}
		}
	})
	if !found {
		fmt.Println(display.Error("no task matches " + args[0]))
		return nil
	}
	fmt.Println(display.Success("Task done"))
	return nil
}

func runTaskClear(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	removed := 0
	_ = a.state.Mutate(func(st *state.State) {
		kept := st.Tasks[:0]
		for _, t := range st.Tasks {
			if t.Done {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		st.Tasks = kept
	})
	fmt.Println(display.Success(fmt.Sprintf("Removed %d completed tasks", removed)))
	return nil
}
