package mirror

import (
	"context"
	"fmt"
)

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// taskList runs remote calls one at a time, in the order they were pushed.
// The first failure stops the list.
type taskList struct {
	tasks []task
}

func (l *taskList) push(name string, fn func(ctx context.Context) error) {
	l.tasks = append(l.tasks, task{name, fn})
}

func (l *taskList) run(ctx context.Context) error {
	for _, t := range l.tasks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}
		if err := t.fn(ctx); err != nil {
			return err
		}
	}
	return nil
}
