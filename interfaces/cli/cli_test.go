package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/interaction"
	"github.com/adriaan-vdb/map-my-mind-WebApp/domain/graph"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/config"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/di"
	"github.com/adriaan-vdb/map-my-mind-WebApp/infrastructure/render"
)

func newTestContainer(t *testing.T) *di.Container {
	t.Helper()
	color.NoColor = true

	cfg := config.Defaults()
	cfg.Storage.Driver = "memory"
	cfg.LLM.Provider = config.ProviderMock
	cfg.Logging.Level = "error"
	require.NoError(t, cfg.Validate())

	c, cleanup, err := di.InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return c
}

type shellFixture struct {
	shell   *Shell
	session *di.Session
	surface *render.Surface
	out     *bytes.Buffer
}

func newShellFixture(t *testing.T) *shellFixture {
	t.Helper()
	c := newTestContainer(t)
	surface := render.NewSurface(graph.Position{X: 100, Y: 50})
	session := c.NewSession(surface)
	t.Cleanup(session.Close)
	out := &bytes.Buffer{}
	return &shellFixture{shell: NewShell(session, surface, out), session: session, surface: surface, out: out}
}

func (f *shellFixture) run(t *testing.T, line string) error {
	t.Helper()
	f.out.Reset()
	return f.shell.Execute(context.Background(), ParseArgs(line))
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"show", []string{"show"}},
		{"  add   Milk  ", []string{"add", "Milk"}},
		{`rename "Buy milk" "Buy oat milk"`, []string{"rename", "Buy milk", "Buy oat milk"}},
		{`save ""`, []string{"save", ""}},
		{"add\tTab", []string{"add", "Tab"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArgs(tt.input))
		})
	}
}

func TestShell_EditingSession(t *testing.T) {
	f := newShellFixture(t)

	require.NoError(t, f.run(t, "generate buy milk, walk dog"))
	assert.Contains(t, f.out.String(), "Generated 2 nodes and 0 edges")

	require.NoError(t, f.run(t, `connect "buy milk" "WALK DOG"`))
	assert.True(t, f.session.Store.HasEdge("n1", "n2"))

	assert.Error(t, f.run(t, "connect n1 n2"), "duplicate pair")

	require.NoError(t, f.run(t, `add "Pay rent" 10 20`))
	require.NoError(t, f.run(t, `arm "pay rent"`))
	require.NoError(t, f.run(t, "tap n1"))
	assert.Contains(t, f.out.String(), `Connected "Pay rent" to "Buy milk"`)
	assert.Len(t, f.session.Store.Edges(), 2)

	require.NoError(t, f.run(t, "tap n2"))
	assert.Contains(t, f.out.String(), "Nothing armed")

	require.NoError(t, f.run(t, `disconnect n1 n2`))
	assert.False(t, f.session.Store.HasEdge("n1", "n2"))
	assert.Empty(t, f.surface.SelectedEdges())

	require.NoError(t, f.run(t, `rename n1 "Buy oat milk"`))
	n, ok := f.session.Store.Node("n1")
	require.True(t, ok)
	assert.Equal(t, "Buy oat milk", n.Label)

	require.NoError(t, f.run(t, "delete n2"))
	assert.False(t, f.session.Store.HasNode("n2"))

	require.NoError(t, f.run(t, "show"))
	assert.Contains(t, f.out.String(), "Buy oat milk")
	assert.Contains(t, f.out.String(), "Pay rent")
}

func TestShell_ExpandAcceptReject(t *testing.T) {
	f := newShellFixture(t)
	require.NoError(t, f.run(t, "generate trip"))
	require.NoError(t, f.run(t, "level 1"))

	require.NoError(t, f.run(t, "expand trip"))
	assert.Contains(t, f.out.String(), "Trip overview, Trip examples")
	assert.Len(t, f.session.Store.Nodes(), 1, "suggestions stay out of the store")

	require.NoError(t, f.run(t, "show"))
	assert.Contains(t, f.out.String(), "suggested")

	require.NoError(t, f.run(t, "reject trip"))
	assert.Error(t, f.run(t, "reject trip"))

	require.NoError(t, f.run(t, "expand trip"))
	require.NoError(t, f.run(t, "accept trip"))
	assert.Contains(t, f.out.String(), "Added 2 suggestion(s)")
	assert.Len(t, f.session.Store.Nodes(), 3)
	assert.Len(t, f.session.Store.Edges(), 2)
}

func TestShell_NewAndDeleteGoThroughController(t *testing.T) {
	f := newShellFixture(t)
	require.NoError(t, f.run(t, "generate plan: hike, read"))
	require.NoError(t, f.run(t, "arm hike"))
	require.NoError(t, f.run(t, "menu hike"))

	require.NoError(t, f.run(t, "delete hike"))
	assert.Equal(t, interaction.GestureIdle, f.session.Controller.Gesture().State)
	_, open := f.session.Controller.Menu()
	assert.False(t, open)

	require.NoError(t, f.run(t, "expand plan"))
	require.NoError(t, f.run(t, "arm read"))
	require.NoError(t, f.run(t, "new"))
	assert.Empty(t, f.session.Edits.Preview().Nodes, "staged suggestions are dropped too")
	assert.Equal(t, interaction.GestureIdle, f.session.Controller.Gesture().State)
}

func TestShell_MenuAndLayout(t *testing.T) {
	f := newShellFixture(t)
	require.NoError(t, f.run(t, "generate plan: hike, read"))

	require.NoError(t, f.run(t, "menu plan"))
	assert.Contains(t, f.out.String(), "Menu for Plan")
	m, open := f.session.Controller.Menu()
	require.True(t, open)

	require.NoError(t, f.run(t, "click -5000 -5000"))
	assert.Contains(t, f.out.String(), "Menu closed")
	_, open = f.session.Controller.Menu()
	assert.False(t, open)
	assert.NotZero(t, m.Rect.Width)

	require.NoError(t, f.run(t, "layout"))
	assert.Contains(t, f.out.String(), "Layout applied")
	for _, id := range []string{"n1", "n2", "n3"} {
		_, ok := f.surface.RenderedPosition(id)
		assert.True(t, ok, id)
	}

	require.NoError(t, f.run(t, "insight"))
	assert.Contains(t, f.out.String(), "3 ideas with 2 links")

	require.NoError(t, f.run(t, "clusters"))
	assert.Contains(t, f.out.String(), "Hike")
}

func TestShell_Library(t *testing.T) {
	f := newShellFixture(t)
	require.NoError(t, f.run(t, "generate a, b"))

	require.NoError(t, f.run(t, `save "my plan"`))
	require.NoError(t, f.run(t, "maps"))
	assert.Contains(t, f.out.String(), "my plan")

	require.NoError(t, f.run(t, "new"))
	assert.Empty(t, f.session.Store.Nodes())

	require.NoError(t, f.run(t, `load "my plan"`))
	assert.Len(t, f.session.Store.Nodes(), 2)
	assert.Error(t, f.run(t, "load missing"))

	require.NoError(t, f.run(t, `mvmap "my plan" ideas`))
	assert.Equal(t, "ideas", f.session.Library.Current())

	require.NoError(t, f.run(t, "rmmap ideas"))
	assert.Empty(t, f.session.Store.Nodes(), "deleting the loaded map clears it")
}

func TestShell_Errors(t *testing.T) {
	f := newShellFixture(t)
	require.NoError(t, f.run(t, "generate a, A"))

	tests := []struct {
		line string
		msg  string
	}{
		{"bogus", "unknown command"},
		{"rename n1", "usage: rename"},
		{"delete nowhere", `no node "nowhere"`},
		{"delete a", "matches 2 nodes"},
		{"level 9", "between 1 and 5"},
		{"add x one two", "usage: add"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			err := f.run(t, tt.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	assert.ErrorIs(t, f.run(t, "exit"), ErrExit)
	require.NoError(t, f.run(t, "help connect"))
	assert.Contains(t, f.out.String(), "connect <from> <to>")
}

func runRoot(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommand_Maps(t *testing.T) {
	c := newTestContainer(t)
	app := NewAppWithContainer(c)
	dir := t.TempDir()

	out, err := runRoot(t, app, "generate", "--save", "errands", "buy milk,", "walk dog")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, `Saved as "errands"`)

	out, err = runRoot(t, app, "maps", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "errands")

	out, err = runRoot(t, app, "maps", "show", "errands")
	require.NoError(t, err)
	assert.Contains(t, out, "Walk dog")

	xmlPath := filepath.Join(dir, "errands.xml")
	_, err = runRoot(t, app, "maps", "export", "errands", "--output", xmlPath)
	require.NoError(t, err)
	data, err := os.ReadFile(xmlPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))

	out, err = runRoot(t, app, "maps", "import", xmlPath, "--name", "copy")
	require.NoError(t, err)
	assert.Contains(t, out, `Imported "copy" (2 nodes, 0 edges)`)

	_, err = runRoot(t, app, "maps", "rename", "copy", "spare")
	require.NoError(t, err)
	_, err = runRoot(t, app, "maps", "rename", "copy", "again")
	assert.Error(t, err)

	_, err = runRoot(t, app, "maps", "delete", "spare")
	require.NoError(t, err)

	out, err = runRoot(t, app, "maps", "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to clean up")

	maps, err := c.Repository.List(context.Background())
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "errands", maps[0].Name)

	_, err = runRoot(t, app, "maps", "show", "spare")
	assert.Error(t, err)
}

func TestApp_ReloadKeepsCommandLineOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	c := newTestContainer(t)
	session := c.NewSession(render.NewSurface(graph.Position{}))
	t.Cleanup(session.Close)

	tests := []struct {
		name     string
		flag     string
		reloaded string
		want     string
	}{
		{"default stays quiet", "", "info", "warn"},
		{"flag wins", "error", "debug", "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &App{LogLevel: tt.flag}
			next := config.Defaults()
			next.Logging.Level = tt.reloaded
			next.Editor.DefaultDetailLevel = 4

			app.reloadHandler(c, session)(nil, next)

			assert.Equal(t, tt.want, c.LogLevel.String())
			assert.Equal(t, tt.reloaded, next.Logging.Level, "the watcher's copy is untouched")
			assert.Equal(t, 4, session.Controller.Settings().DefaultDetailLevel)
		})
	}
}
