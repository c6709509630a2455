package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/interaction"
	"github.com/adriaan-vdb/map-my-mind-WebApp/application/services"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/config"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/di"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/render"
)

// ErrExit is returned by Execute when the user asks to leave the shell.
var ErrExit = errors.New("exit requested")

func shellCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Edit mind maps interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			surface := render.NewSurface(graph.Position{})
			session := c.NewSession(surface)
			defer session.Close()

			if c.Config.File != "" {
				w, err := config.NewWatcher(c.Config, c.Logger)
				if err != nil {
					c.Logger.Warn("Config hot reload disabled", zap.Error(err))
				} else {
					w.OnChange(app.reloadHandler(c, session))
					w.Start()
					defer w.Stop()
				}
			}

			historyFile := ""
			if dir, err := os.UserCacheDir(); err == nil {
				historyFile = filepath.Join(dir, "mindmap", "history")
				_ = os.MkdirAll(filepath.Dir(historyFile), 0o755)
			}
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          Brand.Sprint("mindmap") + "> ",
				HistoryFile:     historyFile,
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdout:          cmd.OutOrStdout(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize readline: %w", err)
			}
			defer rl.Close()

			shell := NewShell(session, surface, cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "Welcome to mindmap. Type 'help' for the list of commands.")
			return shell.Run(cmd.Context(), rl)
		},
	}
}

// Shell is a line-oriented editor over one session.
type Shell struct {
	session *di.Session
	surface *render.Surface
	out     io.Writer
	level   int
}

// NewShell creates a shell writing to out.
func NewShell(session *di.Session, surface *render.Surface, out io.Writer) *Shell {
	return &Shell{session: session, surface: surface, out: out}
}

// Run reads commands until exit or EOF. Command errors are printed and do not
// end the loop.
func (s *Shell) Run(ctx context.Context, rl *readline.Instance) error {
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		args := ParseArgs(strings.TrimSpace(line))
		if len(args) == 0 {
			continue
		}
		if err := s.Execute(ctx, args); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			fmt.Fprintf(s.out, "%s %s\n", StatusIcon(false), services.UserMessage(err))
		}
	}
}

// ParseArgs splits input on spaces, keeping double-quoted runs together.
func ParseArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false
	quoted := false

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			quoted = true
		case (r == ' ' || r == '\t') && !inQuotes:
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
			}
			quoted = false
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}
	return args
}

type shellCommand struct {
	usage string
	help  string
	min   int
	run   func(s *Shell, ctx context.Context, args []string) error
}

var shellCommands map[string]shellCommand

func init() {
	shellCommands = map[string]shellCommand{
		"help":       {"help [command]", "List commands or describe one", 0, (*Shell).help},
		"new":        {"new", "Start an empty map", 0, (*Shell).newMap},
		"generate":   {"generate <text...>", "Replace the map with one generated from text", 1, (*Shell).generate},
		"add":        {"add <label> [x y]", "Add a node, optionally at a position", 1, (*Shell).add},
		"rename":     {"rename <node> <label>", "Relabel a node", 2, (*Shell).rename},
		"delete":     {"delete <node>", "Delete a node and its edges", 1, (*Shell).deleteNode},
		"connect":    {"connect <from> <to>", "Drag an edge from one node to another", 2, (*Shell).connect},
		"arm":        {"arm <node>", "Start tap-to-connect from a node", 1, (*Shell).arm},
		"tap":        {"tap [node]", "Tap a node, or the background when omitted", 0, (*Shell).tap},
		"disconnect": {"disconnect <from> <to>", "Select an edge and press Delete", 2, (*Shell).disconnect},
		"expand":     {"expand <node>", "Suggest children for a node", 1, (*Shell).expand},
		"accept":     {"accept <node>", "Merge the suggestions staged for a node", 1, (*Shell).accept},
		"reject":     {"reject <node>", "Drop the suggestions staged for a node", 1, (*Shell).reject},
		"menu":       {"menu <node>", "Open the node action menu", 1, (*Shell).menu},
		"click":      {"click <x> <y>", "Click the page, closing the menu when outside it", 2, (*Shell).click},
		"layout":     {"layout", "Re-run the automatic layout", 0, (*Shell).layout},
		"insight":    {"insight", "Ask for an analysis of the map", 0, (*Shell).insight},
		"clusters":   {"clusters", "Group the map's nodes by theme", 0, (*Shell).clusters},
		"level":      {"level [1-5]", "Show or set the detail level", 0, (*Shell).setLevel},
		"show":       {"show", "Print the map", 0, (*Shell).show},
		"save":       {"save <name>", "Save the map", 1, (*Shell).save},
		"load":       {"load <name>", "Load a saved map", 1, (*Shell).load},
		"maps":       {"maps", "List saved maps", 0, (*Shell).maps},
		"rmmap":      {"rmmap <name>", "Delete a saved map", 1, (*Shell).rmmap},
		"mvmap":      {"mvmap <old> <new>", "Rename a saved map", 2, (*Shell).mvmap},
		"exit":       {"exit", "Leave the shell", 0, (*Shell).exit},
	}
	shellCommands["quit"] = shellCommands["exit"]
}

// Execute runs one parsed command line.
func (s *Shell) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided")
	}
	cmd, ok := shellCommands[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	if len(args)-1 < cmd.min {
		return fmt.Errorf("usage: %s", cmd.usage)
	}
	return cmd.run(s, ctx, args[1:])
}

// resolve finds a node by id, or by a label that matches exactly one node
// ignoring case. Provisional nodes are included.
func (s *Shell) resolve(ref string) (graph.Node, error) {
	nodes := s.session.Edits.Preview().Nodes
	for _, n := range nodes {
		if n.ID == ref {
			return n, nil
		}
	}
	var matches []graph.Node
	for _, n := range nodes {
		if strings.EqualFold(n.Label, ref) {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 0:
		return graph.Node{}, fmt.Errorf("no node %q", ref)
	case 1:
		return matches[0], nil
	}
	return graph.Node{}, fmt.Errorf("%q matches %d nodes, use the id", ref, len(matches))
}

func (s *Shell) ok(format string, args ...any) {
	fmt.Fprintf(s.out, "%s %s\n", StatusIcon(true), fmt.Sprintf(format, args...))
}

func (s *Shell) help(_ context.Context, args []string) error {
	if len(args) > 0 {
		cmd, ok := shellCommands[strings.ToLower(args[0])]
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(s.out, "%s\n  %s\n", Info.Sprint(cmd.usage), cmd.help)
		return nil
	}

	names := make([]string, 0, len(shellCommands))
	for name := range shellCommands {
		if name != "quit" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{shellCommands[name].usage, shellCommands[name].help})
	}
	Table(s.out, []string{"COMMAND", "DESCRIPTION"}, rows)
	return nil
}

func (s *Shell) newMap(_ context.Context, _ []string) error {
	s.session.Controller.NewMap()
	s.ok("Started an empty map")
	return nil
}

func (s *Shell) generate(ctx context.Context, args []string) error {
	if err := s.session.Controller.Generate(ctx, strings.Join(args, " "), s.level); err != nil {
		return err
	}
	snap := s.session.Store.Snapshot()
	s.ok("Generated %d nodes and %d edges", len(snap.Nodes), len(snap.Edges))
	return nil
}

func (s *Shell) add(_ context.Context, args []string) error {
	var at *graph.Position
	if len(args) >= 3 {
		x, errX := strconv.ParseFloat(args[1], 64)
		y, errY := strconv.ParseFloat(args[2], 64)
		if errX != nil || errY != nil {
			return fmt.Errorf("usage: %s", shellCommands["add"].usage)
		}
		at = &graph.Position{X: x, Y: y}
	}
	n, err := s.session.Controller.PlaceNode(args[0], at)
	if err != nil {
		return err
	}
	s.ok("Added %q (%s)", n.Label, n.ID)
	return nil
}

func (s *Shell) rename(_ context.Context, args []string) error {
	n, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	label := strings.Join(args[1:], " ")
	if err := s.session.Controller.RenameNode(n.ID, label); err != nil {
		return err
	}
	s.ok("Renamed %q to %q", n.Label, strings.TrimSpace(label))
	return nil
}

func (s *Shell) deleteNode(_ context.Context, args []string) error {
	n, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	if !s.session.Controller.DeleteNode(n.ID) {
		return fmt.Errorf("%q is a suggestion, use reject on its parent", n.Label)
	}
	s.ok("Deleted %q", n.Label)
	return nil
}

func (s *Shell) connectResult(from, to graph.Node, created bool) error {
	if !created {
		return fmt.Errorf("no edge added from %q to %q", from.Label, to.Label)
	}
	s.ok("Connected %q to %q", from.Label, to.Label)
	return nil
}

func (s *Shell) connect(_ context.Context, args []string) error {
	from, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	to, err := s.resolve(args[1])
	if err != nil {
		return err
	}
	if !s.session.Controller.DragStart(from.ID) {
		return fmt.Errorf("cannot drag from %q", from.Label)
	}
	_, created := s.session.Controller.DragEnd(to.ID)
	return s.connectResult(from, to, created)
}

func (s *Shell) arm(_ context.Context, args []string) error {
	n, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	if !s.session.Controller.Arm(n.ID) {
		return fmt.Errorf("cannot connect from %q", n.Label)
	}
	s.ok("Tap a node to connect it from %q", n.Label)
	return nil
}

func (s *Shell) tap(_ context.Context, args []string) error {
	if len(args) == 0 {
		s.session.Controller.TapBackground()
		return nil
	}
	to, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	g := s.session.Controller.Gesture()
	if g.State != interaction.GestureArmed {
		Subtle.Fprintln(s.out, "Nothing armed")
		return nil
	}
	from, _ := s.session.Store.Node(g.Source)
	_, created := s.session.Controller.TapNode(to.ID)
	if to.ID == g.Source {
		Subtle.Fprintln(s.out, "Disarmed")
		return nil
	}
	return s.connectResult(from, to, created)
}

func (s *Shell) disconnect(_ context.Context, args []string) error {
	from, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	to, err := s.resolve(args[1])
	if err != nil {
		return err
	}
	if !s.session.Store.HasEdge(from.ID, to.ID) {
		return fmt.Errorf("no edge from %q to %q", from.Label, to.Label)
	}

	s.surface.ClearSelection()
	s.surface.Select(graph.Edge{Source: from.ID, Target: to.ID})
	removed := s.session.Controller.KeyDown("Delete")
	s.surface.ClearSelection()
	s.ok("Removed %d edge(s)", removed)
	return nil
}

func (s *Shell) expand(ctx context.Context, args []string) error {
	n, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	staging, err := s.session.Controller.Expand(ctx, n.ID, s.level)
	if err != nil {
		return err
	}
	labels := make([]string, 0, len(staging.Nodes))
	for _, child := range staging.Nodes {
		labels = append(labels, child.Label)
	}
	s.ok("Suggested for %q: %s", n.Label, strings.Join(labels, ", "))
	Subtle.Fprintf(s.out, "  accept %q or reject %q\n", n.Label, n.Label)
	return nil
}

func (s *Shell) accept(_ context.Context, args []string) error {
	n, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	s.ok("Added %d suggestion(s) to %q", s.session.Controller.Accept(n.ID), n.Label)
	return nil
}

func (s *Shell) reject(_ context.Context, args []string) error {
	n, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	if !s.session.Controller.Reject(n.ID) {
		return fmt.Errorf("nothing staged for %q", n.Label)
	}
	s.ok("Dropped suggestions for %q", n.Label)
	return nil
}

func (s *Shell) menu(_ context.Context, args []string) error {
	n, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	m, ok := s.session.Controller.ContextTap(n.ID)
	if !ok {
		return fmt.Errorf("%q is not on the canvas", n.Label)
	}
	fmt.Fprintf(s.out, "%s at (%.0f, %.0f)\n", Info.Sprint("Menu for "+n.Label), m.Anchor.X, m.Anchor.Y)
	Subtle.Fprintf(s.out, "  expand %[1]q | rename %[1]q <label> | delete %[1]q\n", n.Label)
	return nil
}

func (s *Shell) click(_ context.Context, args []string) error {
	x, errX := strconv.ParseFloat(args[0], 64)
	y, errY := strconv.ParseFloat(args[1], 64)
	if errX != nil || errY != nil {
		return fmt.Errorf("usage: %s", shellCommands["click"].usage)
	}
	s.surface.Click(graph.Position{X: x, Y: y})
	if _, open := s.session.Controller.Menu(); !open {
		Subtle.Fprintln(s.out, "Menu closed")
	}
	return nil
}

func (s *Shell) layout(ctx context.Context, _ []string) error {
	if err := s.session.Controller.Reformat(ctx); err != nil {
		return err
	}
	s.ok("Layout applied")
	return nil
}

func (s *Shell) insight(ctx context.Context, _ []string) error {
	in, err := s.session.Controller.Insight(ctx, s.level)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, Info.Sprint("Insight: ")+in.Insight)
	if in.BlindSpot != "" {
		fmt.Fprintln(s.out, Warn.Sprint("Blind spot: ")+in.BlindSpot)
	}
	if in.Clusters != "" {
		fmt.Fprintln(s.out, Subtle.Sprint("Clusters: ")+in.Clusters)
	}
	return nil
}

func (s *Shell) clusters(ctx context.Context, _ []string) error {
	clusters, err := s.session.Controller.Clusters(ctx, s.level)
	if err != nil {
		return err
	}
	labels := make(map[string]string)
	for _, n := range s.session.Store.Nodes() {
		labels[n.ID] = n.Label
	}
	rows := make([][]string, 0, len(clusters))
	for _, c := range clusters {
		members := make([]string, 0, len(c.NodeIDs))
		for _, id := range c.NodeIDs {
			members = append(members, labels[id])
		}
		rows = append(rows, []string{c.Name, strings.Join(members, ", ")})
	}
	if len(rows) == 0 {
		Subtle.Fprintln(s.out, "No clusters")
	}
	Table(s.out, []string{"CLUSTER", "NODES"}, rows)
	return nil
}

func (s *Shell) detail() int {
	if s.level != 0 {
		return s.level
	}
	return s.session.Controller.Settings().DefaultDetailLevel
}

func (s *Shell) setLevel(_ context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "Detail level %d\n", s.detail())
		return nil
	}
	level, err := strconv.Atoi(args[0])
	if err != nil || level < 1 || level > 5 {
		return fmt.Errorf("detail level must be between 1 and 5")
	}
	s.level = level
	s.ok("Detail level %d", level)
	return nil
}

func (s *Shell) show(_ context.Context, _ []string) error {
	if name := s.session.Library.Current(); name != "" {
		Brand.Fprintln(s.out, name)
	}
	printGraph(s.out, s.session.Edits.Preview())
	if status := s.session.Store.Status(); status.Error != "" {
		fmt.Fprintln(s.out, Bad.Sprint("Error: ")+status.Error)
	}
	return nil
}

func (s *Shell) save(ctx context.Context, args []string) error {
	saved, err := s.session.Library.Save(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	s.ok("Saved %q (%d nodes, %d edges)", saved.Name, len(saved.Nodes), len(saved.Edges))
	return nil
}

func (s *Shell) load(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	found, err := s.session.Library.Load(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("map %q not found", name)
	}
	s.ok("Loaded %q", name)
	return nil
}

func (s *Shell) maps(ctx context.Context, _ []string) error {
	maps, err := s.session.Library.List(ctx)
	if err != nil {
		return err
	}
	if len(maps) == 0 {
		Subtle.Fprintln(s.out, "No saved maps")
		return nil
	}
	current := s.session.Library.Current()
	rows := make([][]string, 0, len(maps))
	for _, m := range maps {
		mark := ""
		if m.Name == current {
			mark = "*"
		}
		rows = append(rows, []string{mark, m.Name, fmt.Sprint(len(m.Nodes)), formatTime(m.UpdatedAt)})
	}
	Table(s.out, []string{"", "NAME", "NODES", "UPDATED"}, rows)
	return nil
}

func (s *Shell) rmmap(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if err := s.session.Library.Delete(ctx, name); err != nil {
		return err
	}
	s.ok("Deleted %q", name)
	return nil
}

func (s *Shell) mvmap(ctx context.Context, args []string) error {
	moved, err := s.session.Library.Rename(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("map %q not found", args[0])
	}
	s.ok("Renamed %q to %q", args[0], args[1])
	return nil
}

func (s *Shell) exit(_ context.Context, _ []string) error {
	fmt.Fprintln(s.out, "Goodbye!")
	return ErrExit
}
