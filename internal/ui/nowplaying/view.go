package nowplaying

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"

	"github.com/llehouerou/singalong/internal/keymap"
	"github.com/llehouerou/singalong/internal/lyrics"
	"github.com/llehouerou/singalong/internal/playback"
	"github.com/llehouerou/singalong/internal/ui/render"
	"github.com/llehouerou/singalong/internal/ui/styles"
)

const (
	frameWidth  = 4 // border and padding, both sides
	barChrome   = 20
	minBarWidth = 10

	// header (2), blank lines (2), progress and settings (2), status,
	// help, top and bottom border
	chromeHeight = 10
	minLyrics    = 3
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.Width() == 0 || m.Height() == 0 {
		return ""
	}
	inner := max(m.Width()-frameWidth, 1)

	var b strings.Builder
	b.WriteString(m.renderHeader(inner))
	b.WriteString("\n\n")
	b.WriteString(m.renderLyrics(inner))
	b.WriteString("\n\n")
	b.WriteString(m.renderProgress())
	b.WriteString("\n")
	b.WriteString(m.renderSettings())
	b.WriteString("\n")
	b.WriteString(m.renderStatus(inner))
	b.WriteString("\n")
	b.WriteString(m.help.View(helpKeys{}))

	return styles.T().S().Frame.Width(m.Width() - 2).Render(b.String())
}

func (m *Model) renderHeader(width int) string {
	s := styles.T().S()
	snap := m.snap

	var title, info string
	switch {
	case snap.Track != nil:
		title = snap.Track.Title()
		if title == "" {
			title = filepath.Base(snap.Track.FilePath())
		}
		var parts []string
		if a := snap.Track.Artist(); a != "" {
			parts = append(parts, a)
		}
		if a := snap.Track.Album(); a != "" {
			parts = append(parts, a)
		}
		info = strings.Join(parts, " · ")
	case snap.Source != "":
		title = snap.Source
		info = "Live stream"
	default:
		return s.Subtle.Render("Nothing playing") + "\n"
	}

	return s.Title.Render(render.Truncate(title, width)) + "\n" +
		s.Muted.Render(render.Truncate(info, width))
}

func (m *Model) renderLyrics(width int) string {
	s := styles.T().S()
	height := m.lyricsHeight()
	lines := make([]string, 0, height)

	doc := m.lyrics.Document()
	switch {
	case m.snap.Track == nil:
	case doc.IsEmpty() && m.lyrics.Track() == nil:
		lines = append(lines, render.Center(s.Subtle.Render("Looking for lyrics…"), width))
	case doc.IsEmpty():
		lines = append(lines, render.Center(s.Subtle.Render("No lyrics"), width))
	default:
		lines = append(lines, m.lyricLines(doc, width, height)...)
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// lyricLines renders the window of doc around the highlighted line. Sung
// lines are dimmed. Untimed sheets show from the top without highlight.
func (m *Model) lyricLines(doc *lyrics.Document, width, height int) []string {
	t := styles.T()
	s := t.S()

	idx := -1
	if doc.IsSynced() {
		idx = m.lyrics.Index()
	}
	start := max(min(idx-height/2, len(doc.Lines)-height), 0)
	end := min(start+height, len(doc.Lines))

	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		text := render.Truncate(doc.Lines[i].Text, width-2)
		var line string
		switch {
		case i == idx:
			line = s.Current.Render("▸ ") + styles.Gradient(text, t.Primary, t.Secondary)
		case i < idx:
			line = s.Subtle.Render(text)
		default:
			line = s.Base.Render(text)
		}
		out = append(out, render.Center(line, width))
	}
	return out
}

func (m *Model) lyricsHeight() int {
	return max(m.Height()-chromeHeight, minLyrics)
}

func (m *Model) renderProgress() string {
	s := styles.T().S()
	snap := m.snap

	symbol := "■"
	switch snap.Status {
	case playback.StatusPlaying:
		symbol = "▶"
	case playback.StatusPaused:
		symbol = "⏸"
	case playback.StatusIdle:
		return s.Subtle.Render(symbol + " stopped")
	}

	if snap.Duration <= 0 {
		return symbol + " " + s.Warning.Render("● live") + "  " + formatDuration(snap.Position)
	}
	fraction := min(float64(snap.Position)/float64(snap.Duration), 1)
	return fmt.Sprintf("%s %s  %s  %s",
		symbol,
		formatDuration(snap.Position),
		m.bar.ViewAs(fraction),
		formatDuration(snap.Duration))
}

func (m *Model) renderSettings() string {
	s := styles.T().S()
	snap := m.snap

	fade := "off"
	if snap.FadeEnabled {
		fade = "on"
	}
	parts := []string{
		fmt.Sprintf("vol %d%%", int(snap.Volume*100+0.5)),
		"bal " + formatBalance(snap.Balance),
		fmt.Sprintf("speed %.1fx", snap.Speed),
		"fade " + fade,
	}
	if doc := m.lyrics.Document(); !doc.IsEmpty() && !doc.IsSynced() {
		parts = append(parts, s.Warning.Render("unsynced"))
	}
	return s.Muted.Render(strings.Join(parts, " · "))
}

func (m *Model) renderStatus(width int) string {
	if m.status == "" {
		return ""
	}
	return styles.T().S().Error.Render(render.Truncate(m.status, width))
}

func formatBalance(b float64) string {
	switch {
	case b < -0.005:
		return fmt.Sprintf("L%.1f", -b)
	case b > 0.005:
		return fmt.Sprintf("R%.1f", b)
	}
	return "center"
}

// formatDuration formats a duration as m:ss.
func formatDuration(d time.Duration) string {
	d = max(d, 0).Truncate(time.Second)
	return fmt.Sprintf("%d:%02d", int(d/time.Minute), int(d%time.Minute/time.Second))
}

// helpKeys adapts the keymap to the bubbles help view.
type helpKeys struct{}

func (helpKeys) ShortHelp() []key.Binding {
	var short []keymap.Binding
	for _, b := range keymap.Bindings {
		switch b.Action {
		case keymap.ActionPlayPause, keymap.ActionNextTrack, keymap.ActionPrevTrack,
			keymap.ActionSeekForward, keymap.ActionHelp, keymap.ActionQuit:
			short = append(short, b)
		}
	}
	return keymap.Help(short)
}

func (helpKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		append(keymap.Help(keymap.ByContext(keymap.ContextPlayback)), keymap.Help(keymap.ByContext(keymap.ContextPlaylist))...),
		keymap.Help(keymap.ByContext(keymap.ContextPosition)),
		keymap.Help(keymap.ByContext(keymap.ContextOutput)),
		keymap.Help(keymap.ByContext(keymap.ContextGlobal)),
	}
}
