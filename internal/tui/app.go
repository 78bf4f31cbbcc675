// Package tui provides the interactive Bubble Tea dashboard for canadaspends.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mackenziebowes/CanadaSpends/internal/breakdown"
	"github.com/mackenziebowes/CanadaSpends/internal/budget"
	"github.com/mackenziebowes/CanadaSpends/internal/cli"
	"github.com/mackenziebowes/CanadaSpends/internal/config"
	"github.com/mackenziebowes/CanadaSpends/internal/model"
	"github.com/mackenziebowes/CanadaSpends/internal/pipeline"
	"github.com/mackenziebowes/CanadaSpends/internal/store"
	"github.com/mackenziebowes/CanadaSpends/internal/tax"
	"github.com/mackenziebowes/CanadaSpends/internal/tui/components"
	"github.com/mackenziebowes/CanadaSpends/internal/tui/theme"
)

// DataLoadedMsg is sent when the data pipeline finishes.
type DataLoadedMsg struct {
	Stats      []model.JurisdictionStats
	FileErrors int
	LoadTime   time.Duration
	Err        error
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background data refresh completes.
type RefreshDataMsg struct {
	Stats      []model.JurisdictionStats
	FileErrors int
	LoadTime   time.Duration
	Err        error
}

// Options configures a new App.
type Options struct {
	Config    config.Config
	DataDir   string
	UseCache  bool
	NeedSetup bool
}

// Tab indexes, matching components.Tabs.
const (
	tabTax = iota
	tabBreakdown
	tabBudget
	tabJurisdictions
)

// App is the root Bubble Tea model.
type App struct {
	cfg      config.Config
	dataDir  string
	useCache bool

	// Jurisdiction data
	stats      []model.JurisdictionStats
	overview   model.Overview
	loaded     bool
	loadTime   time.Duration
	loadErr    error
	fileErrors int
	refreshing bool

	// Personal tax and breakdown
	province  tax.Province
	income    float64
	threshold float64
	calc      tax.Calculation
	bd        breakdown.Breakdown
	bdErr     error

	// Budget trees: federal by default, or a loaded jurisdiction
	reductions budget.Reductions
	live       bool
	summary    budget.Summary
	treeName   string
	spending   budget.Node
	revenue    budget.Node
	reducible  map[budget.Category]bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	taxState    taxState
	bdState     breakdownState
	budgetState budgetState
	jurState    jurisdictionsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues
	needSetup bool

	// Loading: channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	cfg := opts.Config
	theme.SetActive(cfg.Appearance.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	province, ok := tax.ParseProvince(cfg.General.Province)
	if !ok {
		province = tax.ProvinceOntario
	}
	threshold := cfg.Breakdown.Threshold
	if threshold < 0 {
		threshold = breakdown.DefaultThreshold
	}
	reductions, err := cfg.Reductions()
	if err != nil {
		reductions = budget.DefaultReductions(cfg.Budget.Live)
	}

	a := App{
		cfg:        cfg,
		dataDir:    opts.DataDir,
		useCache:   opts.UseCache,
		province:   province,
		income:     cfg.General.Income,
		threshold:  threshold,
		reductions: reductions,
		live:       cfg.Budget.Live,
		needSetup:  opts.NeedSetup,
		spinner:    sp,
		loadSub:    make(chan tea.Msg, 1),
	}
	a.recomputeTax()
	a.setBudgetTrees(federalTreeName, budget.FederalSpending(), budget.FederalRevenue())
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.dataDir, a.useCache, a.loadSub),
		a.spinner.Tick,
	)
}

func (a *App) recomputeTax() {
	a.calc = tax.TotalTax(a.income, string(a.province))
	a.bd, a.bdErr = breakdown.CalculateWithThreshold(a.calc, string(a.province), a.threshold)
}

func (a *App) recomputeBudget() {
	a.summary = budget.Summarize(a.spending, a.revenue, a.reductions)
}

// setBudgetTrees replaces the trees shown on the budget tab.
func (a *App) setBudgetTrees(name string, spending, revenue budget.Node) {
	a.treeName = name
	a.spending = spending
	a.revenue = revenue
	a.reducible = budget.ReducibleCategories(spending)
	a.recomputeBudget()
}

func (a *App) setStats(stats []model.JurisdictionStats) {
	a.stats = stats
	a.overview = pipeline.Aggregate(stats)
	a.jurState.clamp(len(a.filteredStats()))
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		a.fileErrors = msg.FileErrors
		a.setStats(msg.Stats)

		if a.needSetup {
			a.setupVals = newSetupValues(a.cfg)
			a.setupForm = newSetupForm(len(a.stats), a.dataDir, a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case RefreshDataMsg:
		a.refreshing = false
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.loadTime = msg.LoadTime
			a.fileErrors = msg.FileErrors
			a.setStats(msg.Stats)
		}
		return a, nil
	}

	// Forward unhandled messages to the active input (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.taxState.editing {
		var cmd tea.Cmd
		a.taxState.input, cmd = a.taxState.input.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if !a.loaded {
		return a, nil
	}

	// First-run setup wizard intercepts all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	// Income editing intercepts all keys
	if a.activeTab == tabTax && a.taxState.editing {
		return a.updateIncomeInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	var (
		handled bool
		cmd     tea.Cmd
	)
	switch a.activeTab {
	case tabTax:
		a, handled, cmd = a.updateTaxKeys(key)
	case tabBreakdown:
		a, handled = a.updateBreakdownKeys(key)
	case tabBudget:
		a, handled = a.updateBudgetKeys(key)
	case tabJurisdictions:
		a, handled = a.updateJurisdictionsKeys(key)
	}
	if handled {
		return a, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.dataDir, a.useCache)
		}
		return a, nil
	case "tab", "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	case "shift+tab", "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "1", "2", "3", "4":
		a.activeTab = int(key[0] - '1')
	default:
		if len(key) == 1 {
			if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		switch a.activeTab {
		case tabBudget:
			a, _ = a.updateBudgetKeys("up")
		case tabJurisdictions:
			a, _ = a.updateJurisdictionsKeys("up")
		}
	case tea.MouseButtonWheelDown:
		switch a.activeTab {
		case tabBudget:
			a, _ = a.updateBudgetKeys("down")
		case tabJurisdictions:
			a, _ = a.updateJurisdictionsKeys("down")
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.applySetup()
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}

	return a, cmd
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  canadaspends needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active
	w := a.width
	h := a.height

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	countStyle := lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ canadaspends"))
	b.WriteString(subtitleStyle.Render(" · Where your taxes go"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := 40
		if barW > w-30 {
			barW = w - 30
		}
		if barW < 20 {
			barW = 20
		}
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Parsing jurisdictions\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatCount(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatCount(int64(a.progressMax))))
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Discovering jurisdictions..."))
	}

	card := cardStyle.Render(b.String())

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

type binding struct{ key, desc string }

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	sections := []struct {
		title    string
		bindings []binding
	}{
		{"Navigation", []binding{
			{"t b u d", "Jump to tab"},
			{"1-4", "Jump to tab"},
			{"tab ← →", "Next / previous tab"},
			{"j k", "Move selection"},
		}},
		{"Tax & Breakdown", []binding{
			{"e Enter", "Edit income"},
			{"p", "Switch province"},
			{"v", "Cycle breakdown view"},
			{"+ -", "Adjust grouping threshold"},
		}},
		{"Budget", []binding{
			{"← →  h l", "Adjust reduction by 0.5%"},
			{"0", "Clear reduction"},
			{"L", "Toggle official/preliminary defaults"},
			{"s", "Save reductions to config"},
			{"F", "Back to the federal budget"},
		}},
		{"Jurisdictions", []binding{
			{"p", "Cycle province filter"},
			{"b", "Open the budget tree"},
		}},
		{"General", []binding{
			{"r", "Reload data"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	pillStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	accentStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	pill := pillStyle.Render(" ") +
		accentStyle.Render(a.province.Title()) +
		pillStyle.Render(" │ ") +
		accentStyle.Render(cli.FormatDollars(a.income)) +
		pillStyle.Render(" │ ") +
		accentStyle.Render(fmt.Sprintf("%d jurisdictions", len(a.stats)))

	rowStyle := lipgloss.NewStyle().
		Background(t.Surface).
		Width(w)

	header := components.RenderTabBar(a.activeTab, w) + "\n" + rowStyle.Render(pill)

	status := fmt.Sprintf("loaded in %.1fs", a.loadTime.Seconds())
	switch {
	case a.refreshing:
		status = "reloading…"
	case a.loadErr != nil:
		status = "load failed: " + a.loadErr.Error()
	case a.setupVals != nil && a.setupVals.saveErr != nil:
		status = "setup not saved: " + a.setupVals.saveErr.Error()
	case a.fileErrors > 0:
		status = fmt.Sprintf("%d files skipped · %s", a.fileErrors, status)
	}
	statusBar := components.RenderStatusBar(w, a.hints(), status)

	headerH := lipgloss.Height(header)
	statusH := lipgloss.Height(statusBar)
	contentH := h - headerH - statusH
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabTax:
		content = a.renderTaxTab(cw)
	case tabBreakdown:
		content = a.renderBreakdownTab(cw)
	case tabBudget:
		content = a.renderBudgetTab(cw)
	case tabJurisdictions:
		content = a.renderJurisdictionsTab(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) hints() string {
	switch a.activeTab {
	case tabTax:
		if a.taxState.editing {
			return "[enter]apply  [esc]cancel"
		}
		return "[e]dit income  [p]rovince  [?]help  [q]uit"
	case tabBreakdown:
		return "[v]iew  [p]rovince  [+/-]threshold  [?]help  [q]uit"
	case tabBudget:
		return "[j/k]select  [h/l]adjust  [L]ive  [s]ave  [F]ederal  [?]help"
	default:
		return "[j/k]move  [p]rovince filter  [b]udget  [r]eload  [?]help  [q]uit"
	}
}

// ─── Helpers ────────────────────────────────────────────────────

// loadDataCmd starts the data loading pipeline in a background goroutine.
// It streams ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(dataDir string, useCache bool, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking send so workers aren't stalled; the next update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			result, err := loadStats(dataDir, useCache, progressFn)
			msg := DataLoadedMsg{LoadTime: time.Since(start), Err: err}
			if result != nil {
				msg.Stats = result.Jurisdictions
				msg.FileErrors = len(result.FileErrors)
			}
			sub <- msg
		}()

		// Block until the first message (either ProgressMsg or DataLoadedMsg)
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads jurisdiction data in the background (no progress UI).
func refreshDataCmd(dataDir string, useCache bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		result, err := loadStats(dataDir, useCache, nil)
		msg := RefreshDataMsg{LoadTime: time.Since(start), Err: err}
		if result != nil {
			msg.Stats = result.Jurisdictions
			msg.FileErrors = len(result.FileErrors)
		}
		return msg
	}
}

// loadStats loads through the sqlite cache when enabled, falling back to a
// direct parse.
func loadStats(dataDir string, useCache bool, progressFn pipeline.ProgressFunc) (*pipeline.LoadResult, error) {
	ctx := context.Background()
	if useCache {
		cache, err := store.Open(pipeline.CachePath())
		if err == nil {
			cr, loadErr := pipeline.LoadWithCache(ctx, dataDir, cache, progressFn)
			_ = cache.Close()
			if loadErr == nil {
				return &cr.LoadResult, nil
			}
		}
	}
	return pipeline.Load(ctx, dataDir, progressFn)
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
