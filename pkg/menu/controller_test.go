package menu

import (
	"context"
	"sync"
	"testing"
	"time"

	"workspace-cluster-manager/pkg/extensions"
	"workspace-cluster-manager/pkg/metrics"
	"workspace-cluster-manager/pkg/models"
	"workspace-cluster-manager/pkg/navigation"
	"workspace-cluster-manager/pkg/notify"
	"workspace-cluster-manager/pkg/store"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// events records collaborator calls in the order they happen
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, event)
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type recordingNavigator struct {
	events   *events
	mu       sync.Mutex
	location string
	changes  notify.Listeners
}

func (n *recordingNavigator) Navigate(location string) {
	n.events.add("navigate " + location)
	n.mu.Lock()
	n.location = location
	n.mu.Unlock()
	n.changes.Notify()
}

func (n *recordingNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *recordingNavigator) IsActiveRoute(location string) bool {
	return n.Location() == location
}

func (n *recordingNavigator) Subscribe(fn func()) func() {
	return n.changes.Add(fn)
}

type recordingConnections struct {
	events *events
	err    error
	done   chan string
}

func (d *recordingConnections) Disconnect(_ context.Context, clusterID string) error {
	d.events.add("disconnect " + clusterID)
	d.done <- clusterID
	return d.err
}

func (d *recordingConnections) RemoveClient(clusterID string) {
	d.events.add("forget " + clusterID)
}

// stubContexts reports a fixed set of new kubeconfig contexts
type stubContexts struct {
	mu    sync.Mutex
	names []string
}

func (s *stubContexts) NewContexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

func (s *stubContexts) MarkSeen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = nil
}

// recordingStore logs removals before delegating to the real store
type recordingStore struct {
	*store.Store
	events *events
}

func (s recordingStore) RemoveByID(id string) error {
	s.events.add("remove " + id)
	return s.Store.RemoveByID(id)
}

type fixture struct {
	ctrl       *Controller
	store      *store.Store
	workspaces *store.WorkspaceStore
	selection  *store.Selection
	nav        *recordingNavigator
	conn       *recordingConnections
	contexts   *stubContexts
	prompts    *Prompts
	pages      *extensions.Registry
	events     *events
}

func newFixture(t *testing.T, clusters ...models.Cluster) *fixture {
	t.Helper()

	backend, err := store.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	s, err := store.New(backend)
	require.NoError(t, err)
	for _, c := range clusters {
		_, err := s.AddCluster(c)
		require.NoError(t, err)
	}

	workspaces, err := store.NewWorkspaceStore([]models.Workspace{
		{ID: "W", Name: "work"},
		{ID: "M", Name: "managed", IsManaged: true},
	}, "W")
	require.NoError(t, err)

	ev := &events{}
	f := &fixture{
		store:      s,
		workspaces: workspaces,
		selection:  store.NewSelection(),
		nav:        &recordingNavigator{events: ev, location: navigation.LandingURL()},
		conn:       &recordingConnections{events: ev, done: make(chan string, 1)},
		contexts:   &stubContexts{},
		prompts:    NewPrompts(),
		pages:      extensions.NewRegistry(),
		events:     ev,
	}
	f.ctrl = New(Deps{
		Clusters:     recordingStore{Store: s, events: ev},
		Workspaces:   workspaces,
		Selection:    f.selection,
		Navigator:    f.nav,
		Connections:  f.conn,
		Contexts:     f.contexts,
		Pages:        f.pages,
		Confirmer:    f.prompts,
		Metrics:      metrics.New(),
		Logger:       zap.NewNop(),
	})
	return f
}

func cluster(id, ws string) models.Cluster {
	return models.Cluster{ID: id, WorkspaceID: ws, ContextName: "ctx-" + id, Enabled: true}
}

func ids(clusters []models.Cluster) []string {
	result := make([]string, 0, len(clusters))
	for _, c := range clusters {
		result = append(result, c.ID)
	}
	return result
}

func orders(t *testing.T, s *store.Store, ws string) map[string]int {
	t.Helper()
	result := make(map[string]int)
	for _, c := range s.GetByWorkspaceID(ws) {
		result[c.ID] = c.DisplayOrder
	}
	return result
}

func labels(p *Popup) []string {
	var result []string
	for _, item := range p.items {
		result = append(result, item.Label)
	}
	return result
}

func intPtr(i int) *int {
	return &i
}

func TestVisibleClusters(t *testing.T) {
	hidden := cluster("hidden", "W")
	hidden.Enabled = false
	f := newFixture(t,
		cluster("a", "W"),
		hidden,
		cluster("other", "X"),
		cluster("b", "W"),
	)

	visible := f.ctrl.VisibleClusters("W")
	assert.Equal(t, []string{"a", "b"}, ids(visible))
	for _, c := range visible {
		assert.True(t, c.Enabled)
		assert.Equal(t, "W", c.WorkspaceID)
	}

	assert.Equal(t, []string{"other"}, ids(f.ctrl.VisibleClusters("X")))
	assert.Empty(t, f.ctrl.VisibleClusters("nope"))

	t.Run("follows store changes", func(t *testing.T) {
		require.NoError(t, f.store.SetEnabled("hidden", true))
		assert.Equal(t, []string{"a", "hidden", "b"}, ids(f.ctrl.VisibleClusters("W")))
	})
}

func TestReorder(t *testing.T) {
	t.Run("confirmed drop moves icon", func(t *testing.T) {
		f := newFixture(t, cluster("a", "W"), cluster("b", "W"), cluster("c", "W"))

		err := f.ctrl.Reorder(models.DragResult{Reason: models.DropConfirmed, Source: 0, Destination: intPtr(2)})
		require.NoError(t, err)

		assert.Equal(t, map[string]int{"b": 0, "c": 1, "a": 2}, orders(t, f.store, "W"))
	})

	t.Run("cancelled drag is a no-op", func(t *testing.T) {
		f := newFixture(t, cluster("a", "W"), cluster("b", "W"), cluster("c", "W"))
		before := orders(t, f.store, "W")

		require.NoError(t, f.ctrl.Reorder(models.DragResult{Reason: models.DropCancelled, Source: 0, Destination: intPtr(2)}))
		assert.Equal(t, before, orders(t, f.store, "W"))
	})

	t.Run("drop outside the list is a no-op", func(t *testing.T) {
		f := newFixture(t, cluster("a", "W"), cluster("b", "W"))
		before := orders(t, f.store, "W")

		require.NoError(t, f.ctrl.Reorder(models.DragResult{Reason: models.DropConfirmed, Source: 0}))
		assert.Equal(t, before, orders(t, f.store, "W"))
	})

	t.Run("out of range index", func(t *testing.T) {
		f := newFixture(t, cluster("a", "W"), cluster("b", "W"))

		err := f.ctrl.Reorder(models.DragResult{Reason: models.DropConfirmed, Source: 0, Destination: intPtr(5)})
		assert.True(t, errors.Is(err, store.ErrInvalidIndex))
	})

	t.Run("indices refer to visible clusters", func(t *testing.T) {
		hidden := cluster("h", "W")
		hidden.Enabled = false
		f := newFixture(t, cluster("a", "W"), hidden, cluster("b", "W"), cluster("c", "W"))

		// visible list is a, b, c; move c to the front
		err := f.ctrl.Reorder(models.DragResult{Reason: models.DropConfirmed, Source: 2, Destination: intPtr(0)})
		require.NoError(t, err)

		assert.Equal(t, []string{"c", "a", "b"}, ids(f.ctrl.VisibleClusters("W")))
		assert.Equal(t, []string{"c", "a", "h", "b"}, ids(f.store.GetByWorkspaceID("W")))
	})

	t.Run("concurrent changes elsewhere in the workspace", func(t *testing.T) {
		f := newFixture(t, cluster("a", "W"), cluster("b", "W"), cluster("c", "W"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := f.store.AddCluster(cluster("z", "W"))
				assert.NoError(t, err)
				assert.NoError(t, f.store.RemoveByID("z"))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				err := f.ctrl.Reorder(models.DragResult{Reason: models.DropConfirmed, Source: 0, Destination: intPtr(1)})
				assert.NoError(t, err)
			}
		}()
		wg.Wait()

		assert.ElementsMatch(t, []string{"a", "b", "c"}, ids(f.store.GetByWorkspaceID("W")))
		for _, c := range f.store.GetByWorkspaceID("W") {
			assert.Less(t, c.DisplayOrder, 3)
		}
	})

	t.Run("only the current workspace changes", func(t *testing.T) {
		f := newFixture(t, cluster("a", "W"), cluster("b", "W"), cluster("x", "X"), cluster("y", "X"))
		before := orders(t, f.store, "X")

		require.NoError(t, f.ctrl.Reorder(models.DragResult{Reason: models.DropConfirmed, Source: 1, Destination: intPtr(0)}))
		assert.Equal(t, before, orders(t, f.store, "X"))
		assert.Equal(t, map[string]int{"b": 0, "a": 1}, orders(t, f.store, "W"))
	})
}

func TestOpenClusterMenu(t *testing.T) {
	holder := &PopupHolder{}

	tests := []struct {
		name    string
		online  bool
		managed bool
		want    []string
	}{
		{name: "offline user cluster", want: []string{LabelSettings, LabelRemove}},
		{name: "online user cluster", online: true, want: []string{LabelSettings, LabelDisconnect, LabelRemove}},
		{name: "offline managed cluster", managed: true, want: []string{LabelSettings}},
		{name: "online managed cluster", online: true, managed: true, want: []string{LabelSettings, LabelDisconnect}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			c := cluster("a", "W")
			c.Online = tt.online
			c.IsManaged = tt.managed

			menu := holder.NewMenu()
			f.ctrl.OpenClusterMenu(c, menu)
			assert.Equal(t, tt.want, labels(menu))

			items, err := holder.Items()
			require.NoError(t, err)
			assert.Len(t, items, len(tt.want))
		})
	}
}

func invoke(t *testing.T, f *fixture, c models.Cluster, label string) {
	t.Helper()
	holder := &PopupHolder{}
	f.ctrl.OpenClusterMenu(c, holder.NewMenu())

	items, err := holder.Items()
	require.NoError(t, err)
	for _, item := range items {
		if item.Label == label {
			require.NoError(t, holder.Invoke(item.Index))
			return
		}
	}
	t.Fatalf("menu has no %q item", label)
}

func TestSettings(t *testing.T) {
	f := newFixture(t, cluster("a", "W"))
	c, _ := f.store.GetCluster("a")

	invoke(t, f, *c, LabelSettings)
	assert.Equal(t, []string{"navigate /cluster/a/settings"}, f.events.all())
}

func TestDisconnect(t *testing.T) {
	t.Run("active cluster", func(t *testing.T) {
		c := cluster("a", "W")
		c.Online = true
		f := newFixture(t, c)
		f.selection.SetActive("a")

		invoke(t, f, c, LabelDisconnect)

		select {
		case id := <-f.conn.done:
			assert.Equal(t, "a", id)
		case <-time.After(5 * time.Second):
			t.Fatal("disconnect was not requested")
		}

		_, active := f.selection.ActiveID()
		assert.False(t, active)
		assert.Equal(t, []string{"navigate /landing", "disconnect a"}, f.events.all())
	})

	t.Run("inactive cluster", func(t *testing.T) {
		c := cluster("a", "W")
		c.Online = true
		f := newFixture(t, c, cluster("b", "W"))
		f.selection.SetActive("b")

		invoke(t, f, c, LabelDisconnect)
		<-f.conn.done

		activeID, _ := f.selection.ActiveID()
		assert.Equal(t, "b", activeID)
		assert.Equal(t, []string{"disconnect a"}, f.events.all())
	})

	t.Run("failure keeps cleared selection", func(t *testing.T) {
		c := cluster("a", "W")
		c.Online = true
		f := newFixture(t, c)
		f.conn.err = errors.New("ipc closed")
		f.selection.SetActive("a")

		invoke(t, f, c, LabelDisconnect)
		<-f.conn.done

		_, active := f.selection.ActiveID()
		assert.False(t, active)
		assert.Equal(t, navigation.LandingURL(), f.nav.Location())
	})
}

func TestRemove(t *testing.T) {
	t.Run("active cluster", func(t *testing.T) {
		f := newFixture(t, cluster("a", "W"), cluster("b", "W"))
		f.selection.SetActive("a")
		c, _ := f.store.GetCluster("a")

		invoke(t, f, *c, LabelRemove)

		prompt, ok := f.prompts.Pending()
		require.True(t, ok)
		assert.Contains(t, prompt.Message, "ctx-a")
		assert.Equal(t, "ctx-a", prompt.Subject)
		assert.Equal(t, "a", prompt.Detail)
		assert.Empty(t, f.events.all(), "nothing happens before confirmation")

		require.NoError(t, f.prompts.Resolve(prompt.ID, true))

		_, active := f.selection.ActiveID()
		assert.False(t, active)
		assert.Equal(t, []string{"navigate /landing", "remove a", "forget a"}, f.events.all())
		_, found := f.store.GetCluster("a")
		assert.False(t, found)
		assert.Equal(t, map[string]int{"b": 0}, orders(t, f.store, "W"))
	})

	t.Run("inactive cluster", func(t *testing.T) {
		f := newFixture(t, cluster("a", "W"), cluster("b", "W"))
		f.selection.SetActive("b")
		c, _ := f.store.GetCluster("a")

		invoke(t, f, *c, LabelRemove)
		prompt, _ := f.prompts.Pending()
		require.NoError(t, f.prompts.Resolve(prompt.ID, true))

		activeID, _ := f.selection.ActiveID()
		assert.Equal(t, "b", activeID)
		assert.Equal(t, []string{"remove a", "forget a"}, f.events.all())
	})

	t.Run("cancelled", func(t *testing.T) {
		f := newFixture(t, cluster("a", "W"))
		f.selection.SetActive("a")
		c, _ := f.store.GetCluster("a")

		invoke(t, f, *c, LabelRemove)
		prompt, _ := f.prompts.Pending()
		require.NoError(t, f.prompts.Resolve(prompt.ID, false))

		_, found := f.store.GetCluster("a")
		assert.True(t, found)
		activeID, _ := f.selection.ActiveID()
		assert.Equal(t, "a", activeID)
		assert.Empty(t, f.events.all())

		_, pending := f.prompts.Pending()
		assert.False(t, pending)
	})
}

func TestSelectCluster(t *testing.T) {
	f := newFixture(t, cluster("a", "W"))

	f.ctrl.SelectCluster("a")
	f.ctrl.SelectCluster("a")

	assert.Equal(t, navigation.ClusterViewURL("a"), f.nav.Location())
	_, active := f.selection.ActiveID()
	assert.False(t, active, "selecting only navigates")
}

func TestAddCluster(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.ctrl.AddCluster())
	assert.Equal(t, navigation.AddClusterURL(), f.nav.Location())
	assert.True(t, f.ctrl.Sidebar().AddClusterEnabled)

	require.NoError(t, f.workspaces.SetCurrent("M"))
	f.nav.Navigate(navigation.LandingURL())

	assert.False(t, f.ctrl.AddCluster())
	assert.Equal(t, navigation.LandingURL(), f.nav.Location())
	assert.False(t, f.ctrl.Sidebar().AddClusterEnabled)
}

func TestExtensionIcons(t *testing.T) {
	f := newFixture(t)
	overview := extensions.PageTarget{ExtensionID: "metrics", PageID: "overview"}
	url := f.pages.AddPage(overview)
	f.pages.AddMenuItem(extensions.MenuItem{Title: "Metrics", Target: overview, Icon: "bar_chart"})
	f.pages.AddMenuItem(extensions.MenuItem{Title: "Broken", Target: extensions.PageTarget{ExtensionID: "gone"}})

	icons := f.ctrl.ExtensionIcons()
	require.Len(t, icons, 1)
	assert.Equal(t, "Metrics", icons[0].Title)
	assert.Equal(t, url, icons[0].URL)
	assert.False(t, icons[0].Active)

	assert.True(t, f.ctrl.OpenExtensionPage(overview))
	assert.True(t, f.ctrl.ExtensionIcons()[0].Active)
	assert.False(t, f.ctrl.OpenExtensionPage(extensions.PageTarget{ExtensionID: "gone"}))
}

func TestNewContexts(t *testing.T) {
	f := newFixture(t)
	f.contexts.names = []string{"kind-dev", "prod"}

	assert.Equal(t, 2, f.ctrl.Sidebar().NewContexts)

	require.True(t, f.ctrl.AddCluster())
	assert.Equal(t, 0, f.ctrl.Sidebar().NewContexts)

	t.Run("managed workspace keeps the badge", func(t *testing.T) {
		f.contexts.names = []string{"staging"}
		require.NoError(t, f.workspaces.SetCurrent("M"))
		assert.False(t, f.ctrl.AddCluster())
		assert.Equal(t, 1, f.ctrl.Sidebar().NewContexts)
	})

	t.Run("without a feed", func(t *testing.T) {
		ctrl := New(Deps{
			Clusters:   f.store,
			Workspaces: f.workspaces,
			Selection:  f.selection,
			Navigator:  f.nav,
			Pages:      f.pages,
		})
		assert.Equal(t, 0, ctrl.Sidebar().NewContexts)
	})
}

func TestSidebar(t *testing.T) {
	f := newFixture(t, cluster("a", "W"), cluster("b", "W"))
	f.selection.SetActive("b")

	sidebar := f.ctrl.Sidebar()
	assert.Equal(t, "W", sidebar.Workspace.ID)
	require.Len(t, sidebar.Clusters, 2)
	assert.False(t, sidebar.Clusters[0].Active)
	assert.True(t, sidebar.Clusters[1].Active)
	assert.Equal(t, navigation.LandingURL(), sidebar.Location)
}

func TestWatch(t *testing.T) {
	f := newFixture(t, cluster("a", "W"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := f.ctrl.Watch(ctx)
	next := func() models.Sidebar {
		select {
		case s := <-updates:
			return s
		case <-time.After(5 * time.Second):
			t.Fatal("no sidebar update")
			return models.Sidebar{}
		}
	}

	assert.Len(t, next().Clusters, 1)

	_, err := f.store.AddCluster(cluster("b", "W"))
	require.NoError(t, err)
	assert.Len(t, next().Clusters, 2)

	cancel()
	for range updates {
	}
}
