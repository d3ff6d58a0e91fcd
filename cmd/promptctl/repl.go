package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"prompt-studio/internal/provider"
	"prompt-studio/internal/viewmodel"
	"prompt-studio/shared/models"
)

var errQuit = errors.New("quit")

// repl - терминальный интерфейс над теми же view-моделями, что и веб-UI.
// Состояние живет в памяти процесса.
type repl struct {
	ws       *viewmodel.Workspace
	api      viewmodel.PromptAPI
	runner   viewmodel.ChatRunner
	registry *provider.Registry
	notifier viewmodel.Notifier
	out      io.Writer
	in       *bufio.Scanner
}

func newREPL(projectID int64, api viewmodel.PromptAPI, runner viewmodel.ChatRunner, registry *provider.Registry, notifier viewmodel.Notifier, in io.Reader, out io.Writer) *repl {
	if registry == nil {
		registry = provider.NewRegistry(nil)
	}
	return &repl{
		ws:       viewmodel.NewWorkspace(projectID),
		api:      api,
		runner:   runner,
		registry: registry,
		notifier: notifier,
		out:      out,
		in:       bufio.NewScanner(in),
	}
}

func (r *repl) editor() *viewmodel.PromptEditor {
	return viewmodel.NewPromptEditor(r.ws.ProjectID, &r.ws.Editor, r.api, r.notifier)
}

func (r *repl) chat() *viewmodel.ChatPanel {
	return viewmodel.NewChatPanel(r.ws.ProjectID, &r.ws.Chat, r.ws.Editor.Current, viewmodel.ChatDeps{
		Runner:   r.runner,
		Examples: r.api,
		Notifier: r.notifier,
	})
}

// Run читает команды до EOF или quit.
func (r *repl) Run(ctx context.Context) error {
	r.printf("prompt-studio REPL, project %d. Type 'help' for commands.\n", r.ws.ProjectID)
	for {
		r.printf("%s> ", r.prompt())
		if !r.in.Scan() {
			return r.in.Err()
		}
		err := r.Execute(ctx, r.in.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			r.printf("error: %v\n", err)
		}
	}
}

func (r *repl) prompt() string {
	if d := r.ws.Editor.Current; d != nil {
		return fmt.Sprintf("[%d] %s", r.ws.ProjectID, d.Name)
	}
	return fmt.Sprintf("[%d]", r.ws.ProjectID)
}

func (r *repl) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// Execute выполняет одну команду.
func (r *repl) Execute(ctx context.Context, line string) error {
	cmd, rest := splitWord(strings.TrimSpace(line))
	switch cmd {
	case "":
		return nil
	case "help":
		r.printf("%s", helpText)
		return nil
	case "quit", "exit":
		return errQuit
	case "project":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		r.ws.SwitchProject(id)
		return nil
	case "list":
		if err := r.editor().LoadPrompts(ctx); err != nil {
			return err
		}
		for _, p := range r.ws.Editor.Prompts {
			r.printf("%6d  %s  [%s]\n", p.ID, p.Name, strings.Join(p.TagNames(), ", "))
		}
		return nil
	case "open":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		if err := r.editor().SelectPrompt(ctx, id); err != nil {
			return err
		}
		r.chat()
		r.show()
		return nil
	case "show":
		r.show()
		return nil
	case "new":
		_, err := r.editor().CreatePrompt(ctx, rest)
		return err
	case "tags":
		if rest == "" {
			if err := r.editor().LoadTags(ctx); err != nil {
				return err
			}
			r.printf("%s\n", strings.Join(r.ws.Editor.ProjectTags, ", "))
			return nil
		}
		return r.updatePrompt(ctx, cmd, rest)
	case "name", "text":
		return r.updatePrompt(ctx, cmd, rest)
	case "delete":
		return r.deletePrompt(ctx)
	case "example":
		return r.example(ctx, rest)
	case "var":
		return r.variable(ctx, rest)
	case "integrations":
		for _, in := range r.registry.List(r.ws.ProjectID) {
			r.printf("%s  %s\n", in.UID, in.Name)
		}
		return nil
	case "use":
		uid, flag := splitWord(rest)
		r.editor().SelectIntegration(uid, flag == "embed")
		return nil
	case "chat":
		return r.sendChat(ctx, rest)
	case "clear":
		r.chat().Clear()
		return nil
	case "test":
		if err := r.editor().RunTest(ctx, rest); err != nil {
			return err
		}
		r.printf("%s\n", r.ws.Editor.TestOutput)
		return nil
	}
	return fmt.Errorf("unknown command %q, type 'help'", cmd)
}

func (r *repl) updatePrompt(ctx context.Context, field, value string) error {
	d := r.ws.Editor.Current
	if d == nil {
		return models.ErrNoPromptSelected
	}
	name, text, tags := d.Name, d.Prompt, d.Tags
	switch field {
	case "name":
		name = value
	case "text":
		text = value
	case "tags":
		return r.editor().UpdateTags(ctx, strings.Split(value, ","))
	}
	return r.editor().UpdatePrompt(ctx, name, text, tags)
}

func (r *repl) deletePrompt(ctx context.Context) error {
	ed := r.editor()
	if err := ed.AskDelete(); err != nil {
		return err
	}
	var event viewmodel.ConfirmEvent
	modal := ed.DeleteModal(func(e viewmodel.ConfirmEvent) { event = e })
	r.printf("%s %s [y/N] ", modal.Title, modal.Body)
	answer := ""
	if r.in.Scan() {
		answer = strings.ToLower(strings.TrimSpace(r.in.Text()))
	}
	if answer == "y" || answer == "yes" {
		modal.Confirm()
	} else {
		modal.Cancel()
	}
	return ed.HandleConfirm(ctx, event)
}

func (r *repl) example(ctx context.Context, args string) error {
	sub, rest := splitWord(args)
	chat := r.chat()
	switch sub {
	case "add":
		key, err := chat.AddExampleRow()
		if err != nil {
			return err
		}
		r.printf("%s\n", key)
		return nil
	case "set":
		keyStr, rest := splitWord(rest)
		field, value := splitWord(rest)
		key, err := models.ParseRowKey(keyStr)
		if err != nil {
			return err
		}
		kind := viewmodel.KindText
		if viewmodel.ExampleField(field) == viewmodel.FieldIsActive {
			kind = viewmodel.KindCheckbox
		}
		return chat.EditExampleField(ctx, key, viewmodel.ExampleField(field), value, kind)
	case "rm":
		key, err := models.ParseRowKey(strings.TrimSpace(rest))
		if err != nil {
			return err
		}
		return chat.DeleteExample(ctx, key)
	}
	return fmt.Errorf("usage: example add | example set <key> input|output|is_active <value> | example rm <key>")
}

func (r *repl) variable(ctx context.Context, args string) error {
	sub, rest := splitWord(args)
	switch sub {
	case "add":
		name, value := splitWord(rest)
		key, err := r.editor().CreateVariable(ctx, name, value)
		if err != nil {
			return err
		}
		r.printf("%s\n", key)
		return nil
	case "set":
		keyStr, rest := splitWord(rest)
		name, value := splitWord(rest)
		key, err := models.ParseRowKey(keyStr)
		if err != nil {
			return err
		}
		return r.editor().UpdateVariable(ctx, key, name, value)
	case "rm":
		key, err := models.ParseRowKey(strings.TrimSpace(rest))
		if err != nil {
			return err
		}
		return r.editor().DeleteVariable(ctx, key)
	}
	return fmt.Errorf("usage: var add <name> <value> | var set <key> <name> <value> | var rm <key>")
}

func (r *repl) sendChat(ctx context.Context, message string) error {
	chat := r.chat()
	chat.SetMessage(message)
	opts := viewmodel.SendOptions{
		IntegrationUID: r.ws.Editor.SelectedIntegration,
		ShowEmbedding:  r.ws.Editor.ShowEmbedding,
	}
	if d := r.ws.Editor.Current; d != nil {
		opts.EmbeddingSettings = d.Embeddings
	}
	if opts.IntegrationUID == "" {
		return fmt.Errorf("select an integration first: use <uid>")
	}
	if err := chat.Send(ctx, opts); err != nil {
		return err
	}
	if n := len(r.ws.Chat.History); n > 0 && r.ws.Chat.History[n-1].IsAI() {
		r.printf("ai: %s\n", r.ws.Chat.History[n-1].Content)
	}
	return nil
}

func (r *repl) show() {
	d := r.ws.Editor.Current
	if d == nil {
		r.printf("no prompt selected\n")
		return
	}
	r.printf("#%d %s [%s]\n%s\n", d.ID, d.Name, strings.Join(d.Tags, ", "), d.Prompt)
	for _, e := range d.Examples {
		r.printf("  example %s active=%t\n    in:  %s\n    out: %s\n", e.Key, e.IsActive, e.Input, e.Output)
	}
	for _, v := range d.Variables {
		r.printf("  var %s %s=%s\n", v.Key, v.Name, v.Value)
	}
}

func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	head, tail, _ := strings.Cut(s, " ")
	return head, strings.TrimSpace(tail)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", models.ErrBadRequest, s)
	}
	return id, nil
}

const helpText = `Commands:
  project <id>                      switch project
  list                              list prompts
  open <id> | show                  select / print prompt
  new <name>                        create prompt
  name <text> | text <text>         update prompt name / text
  tags [a,b,c]                      list project tags / replace prompt tags
  delete                            delete current prompt
  example add                       add pending example row
  example set <key> <field> <val>   edit example (input, output, is_active)
  example rm <key>                  delete example
  var add <name> <value>            create variable
  var set <key> <name> <value>      update variable
  var rm <key>                      delete variable
  integrations                      list integrations
  use <uid> [embed]                 select integration
  chat <message> | clear            chat with the prompt / clear history
  test <input>                      run prompt once
  quit
`
