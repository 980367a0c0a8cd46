package frontend

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/janpfeifer/GoPeaks/internal/levels"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Home is the landing page component, listing the levels to play.
type Home struct {
	app.Compo
	Levels  []levels.Info
	loadErr string
	loading bool
}

func (h *Home) OnMount(ctx app.Context) {
	klog.V(1).Infof("Home: OnMount called")
	State.Listeners["home"] = func() {
		ctx.Dispatch(func(ctx app.Context) {})
	}
	State.SyncMusic()
	h.fetchLevels(ctx)
}

func (h *Home) OnDismount() {
	delete(State.Listeners, "home")
}

func (h *Home) OnNav(ctx app.Context) {
	klog.V(1).Infof("Home: OnNav called, Path=%s", app.Window().URL().Path)
	State.SyncMusic()
	h.fetchLevels(ctx)
}

// fetchLevels loads the level list from the server. Prerendering skips
// it; the browser side fetches after hydration.
func (h *Home) fetchLevels(ctx app.Context) {
	if app.IsServer || len(h.Levels) > 0 || h.loading {
		return
	}
	h.loading = true
	ctx.Async(func() {
		resp, err := http.Get("/api/levels")
		if err != nil {
			klog.Errorf("Home: Failed to fetch levels: %v", err)
			ctx.Dispatch(func(ctx app.Context) {
				h.loading = false
				h.loadErr = fmt.Sprintf("Failed to load the levels: %v", err)
			})
			return
		}
		defer resp.Body.Close()

		var infos []levels.Info
		if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
			klog.Errorf("Home: Failed to decode levels: %v", err)
			ctx.Dispatch(func(ctx app.Context) {
				h.loading = false
				h.loadErr = fmt.Sprintf("Failed to load the levels: %v", err)
			})
			return
		}

		klog.Infof("Home: Loaded %d levels", len(infos))
		ctx.Dispatch(func(ctx app.Context) {
			h.loading = false
			h.loadErr = ""
			h.Levels = infos
		})
	})
}

func (h *Home) OnAppUpdate(ctx app.Context) {
	klog.Infof("Home component: App update available, reloading...")
	ctx.Reload()
}

func (h *Home) renderLevel(info levels.Info) app.UI {
	// A remembered session means the board can be picked up where the
	// player left it.
	label := "Play"
	if getCookie(sessionCookieName(info.ID)) != "" {
		label = "Resume"
	}
	levelID := info.ID
	return app.Div().Class("level-entry").Body(
		app.Strong().Text(fmt.Sprintf("Level %d", info.ID)),
		app.Span().Text(fmt.Sprintf("%d cards on the field, %d in the stock", info.Playfield, info.Stock)),
		app.Button().Text(label).OnClick(func(ctx app.Context, e app.Event) {
			e.PreventDefault()
			ctx.Navigate(fmt.Sprintf("/game/%d", levelID))
		}),
	)
}

func (h *Home) Render() app.UI {
	var content app.UI
	switch {
	case h.loadErr != "":
		content = app.P().Style("color", "red").Text(h.loadErr)
	case len(h.Levels) == 0:
		content = app.Div().Aria("busy", "true").Text("Loading levels...")
	default:
		items := make([]app.UI, 0, len(h.Levels))
		for _, info := range h.Levels {
			items = append(items, h.renderLevel(info))
		}
		content = app.Div().Class("level-list").Body(items...)
	}

	return app.Main().Class("container").Body(
		&TopBar{},
		app.Article().Body(
			app.Header().Body(
				app.H2().Text("Pick a Level"),
			),
			app.P().Text("Clear the playfield by matching cards one rank above or below the active card. Aces and kings count as neighbours."),
			content,
		),
	)
}
