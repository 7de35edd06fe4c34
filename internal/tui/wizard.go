package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pmi-ops/sprintload/internal/config"
)

// Provider IDs.
const (
	providerLocal  = "local"
	providerAzure  = "azure"
	providerAWS    = "aws"
	providerGoogle = "google"
)

// Provider represents a database hosting provider.
type Provider struct {
	ID          string
	Name        string
	Description string
	AuthLabel   string
}

// Available providers. The hosting choice implies the authentication
// method written to sprintload.yaml.
var providers = []Provider{
	{
		ID:          providerLocal,
		Name:        "Local / On-Premises",
		Description: "PostgreSQL on localhost or your own servers",
		AuthLabel:   "Username and Password",
	},
	{
		ID:          providerAzure,
		Name:        "Azure Database for PostgreSQL",
		Description: "Microsoft Azure managed PostgreSQL",
		AuthLabel:   "Azure Entra ID (az login, managed identity, or environment variables)",
	},
	{
		ID:          providerAWS,
		Name:        "AWS RDS PostgreSQL",
		Description: "Amazon Web Services managed PostgreSQL",
		AuthLabel:   "IAM Database Authentication",
	},
	{
		ID:          providerGoogle,
		Name:        "Google Cloud SQL",
		Description: "Google Cloud managed PostgreSQL",
		AuthLabel:   "Cloud SQL IAM",
	},
}

// InitResult holds the result of the init wizard.
type InitResult struct {
	Cancelled bool
	Config    config.ProjectConfig
}

// InitWizard guides users through setting up a sprint loading project.
type InitWizard struct {
	step initStep

	// Provider selection
	providerIdx int
	provider    *Provider

	// Form inputs
	inputs        []textinput.Model
	focusIndex    int
	validationErr string

	// Multi-schema choice
	multiSchema bool

	// Result
	result InitResult

	// Dimensions
	width  int
	height int

	// Styles and keys
	styles wizardStyles
	keys   wizardKeys
}

type initStep int

const (
	stepSelectProvider initStep = iota
	stepInputConnection
	stepInputSprint
	stepSchemaChoice
	stepComplete
)

type wizardStyles struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Selected    lipgloss.Style
	Unselected  lipgloss.Style
	Description lipgloss.Style
	Help        lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Label       lipgloss.Style
}

type wizardKeys struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding
	Tab    key.Binding
}

func defaultWizardStyles() wizardStyles {
	return wizardStyles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginBottom(1),
		Subtitle:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginBottom(1),
		Selected:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		Unselected:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Description: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginLeft(4),
		Help:        lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1),
		Success:     lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Label:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

func defaultWizardKeys() wizardKeys {
	return wizardKeys{
		Up:     key.NewBinding(key.WithKeys("up", "k")),
		Down:   key.NewBinding(key.WithKeys("down", "j")),
		Select: key.NewBinding(key.WithKeys("enter")),
		Back:   key.NewBinding(key.WithKeys("esc")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "q")),
		Tab:    key.NewBinding(key.WithKeys("tab")),
	}
}

// NewInitWizard creates a new init wizard.
func NewInitWizard() InitWizard {
	return InitWizard{
		step:   stepSelectProvider,
		width:  80,
		height: 24,
		styles: defaultWizardStyles(),
		keys:   defaultWizardKeys(),
	}
}

// Init implements tea.Model.
func (w InitWizard) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (w InitWizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		return w, nil

	case tea.KeyMsg:
		// ctrl+c always quits
		if msg.String() == "ctrl+c" {
			w.result.Cancelled = true
			return w, tea.Quit
		}

		switch w.step {
		case stepSelectProvider:
			return w.updateProviderSelection(msg)
		case stepInputConnection, stepInputSprint:
			return w.updateInputForm(msg)
		case stepSchemaChoice:
			return w.updateSchemaChoice(msg)
		case stepComplete:
			return w.updateComplete(msg)
		}

	default:
		// Forward non-key messages (focus, blink cursor) to active text input
		switch w.step {
		case stepInputConnection, stepInputSprint:
			if w.focusIndex >= 0 && w.focusIndex < len(w.inputs) {
				var cmd tea.Cmd
				w.inputs[w.focusIndex], cmd = w.inputs[w.focusIndex].Update(msg)
				return w, cmd
			}
		}
	}

	return w, nil
}

func (w InitWizard) updateProviderSelection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, w.keys.Up):
		if w.providerIdx > 0 {
			w.providerIdx--
		}
	case key.Matches(msg, w.keys.Down):
		if w.providerIdx < len(providers)-1 {
			w.providerIdx++
		}
	case key.Matches(msg, w.keys.Select):
		w.provider = &providers[w.providerIdx]
		w.step = stepInputConnection
		return w, w.initInputs()
	case key.Matches(msg, w.keys.Back):
		w.result.Cancelled = true
		return w, tea.Quit
	}
	return w, nil
}

func (w *InitWizard) initInputs() tea.Cmd {
	w.inputs = nil
	w.focusIndex = 0

	switch w.step {
	case stepInputConnection:
		w.inputs = w.createConnectionInputs()
	case stepInputSprint:
		w.inputs = w.createSprintInputs()
	}

	if len(w.inputs) > 0 {
		return w.inputs[0].Focus()
	}
	return nil
}

func (w *InitWizard) createConnectionInputs() []textinput.Model {
	switch w.provider.ID {
	case providerAzure:
		server := textinput.New()
		server.Placeholder = "myserver.postgres.database.azure.com"
		server.CharLimit = 256
		server.Width = 50

		database := textinput.New()
		database.Placeholder = "pmi_sprint"
		database.CharLimit = 64
		database.Width = 40

		username := textinput.New()
		username.Placeholder = "user@myserver"
		username.CharLimit = 128
		username.Width = 40

		return []textinput.Model{server, database, username}

	case providerAWS:
		host := textinput.New()
		host.Placeholder = "mydb.xxx.us-east-1.rds.amazonaws.com"
		host.CharLimit = 256
		host.Width = 50

		port := textinput.New()
		port.SetValue("5432")
		port.CharLimit = 5
		port.Width = 10

		database := textinput.New()
		database.Placeholder = "pmi_sprint"
		database.CharLimit = 64
		database.Width = 40

		username := textinput.New()
		username.Placeholder = "iam_user"
		username.CharLimit = 64
		username.Width = 40

		region := textinput.New()
		region.Placeholder = "us-east-1"
		region.CharLimit = 32
		region.Width = 20

		return []textinput.Model{host, port, database, username, region}

	case providerGoogle:
		instance := textinput.New()
		instance.Placeholder = "project:region:instance"
		instance.CharLimit = 256
		instance.Width = 50

		database := textinput.New()
		database.Placeholder = "pmi_sprint"
		database.CharLimit = 64
		database.Width = 40

		username := textinput.New()
		username.Placeholder = "iam_user@project.iam"
		username.CharLimit = 128
		username.Width = 50

		return []textinput.Model{instance, database, username}

	default:
		host := textinput.New()
		host.SetValue("localhost")
		host.CharLimit = 256
		host.Width = 40

		port := textinput.New()
		port.SetValue("5432")
		port.CharLimit = 5
		port.Width = 10

		database := textinput.New()
		database.Placeholder = "pmi_sprint"
		database.CharLimit = 64
		database.Width = 40

		username := textinput.New()
		username.SetValue("postgres")
		username.CharLimit = 64
		username.Width = 40

		return []textinput.Model{host, port, database, username}
	}
}

func (w *InitWizard) createSprintInputs() []textinput.Model {
	sites := textinput.New()
	sites.Placeholder = "saint_peter, chicago_hope (comma separated)"
	sites.CharLimit = 512
	sites.Width = 60

	sprint := textinput.New()
	sprint.SetValue("0")
	sprint.CharLimit = 4
	sprint.Width = 10

	csvDir := textinput.New()
	csvDir.SetValue(".")
	csvDir.CharLimit = 256
	csvDir.Width = 50

	return []textinput.Model{sites, sprint, csvDir}
}

func (w InitWizard) updateInputForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, w.keys.Tab), msg.String() == "down":
		if w.focusIndex < len(w.inputs)-1 {
			w.inputs[w.focusIndex].Blur()
			w.focusIndex++
			return w, w.inputs[w.focusIndex].Focus()
		}
	case msg.String() == "shift+tab", msg.String() == "up":
		if w.focusIndex > 0 {
			w.inputs[w.focusIndex].Blur()
			w.focusIndex--
			return w, w.inputs[w.focusIndex].Focus()
		}
	case key.Matches(msg, w.keys.Select):
		// Enter on non-last field advances to next field
		if w.focusIndex < len(w.inputs)-1 {
			w.inputs[w.focusIndex].Blur()
			w.focusIndex++
			return w, w.inputs[w.focusIndex].Focus()
		}
		// Enter on last field submits the form
		if err := w.validateInputs(); err != nil {
			w.validationErr = err.Error()
			return w, nil
		}
		w.validationErr = ""
		if w.step == stepInputConnection {
			w.applyConnectionInputs()
			w.step = stepInputSprint
			return w, w.initInputs()
		}
		w.applySprintInputs()
		w.step = stepSchemaChoice
		return w, nil
	case key.Matches(msg, w.keys.Back):
		if w.step == stepInputSprint {
			w.step = stepInputConnection
			return w, w.initInputs()
		}
		w.step = stepSelectProvider
		return w, nil
	default:
		w.validationErr = ""
		var cmd tea.Cmd
		w.inputs[w.focusIndex], cmd = w.inputs[w.focusIndex].Update(msg)
		return w, cmd
	}
	return w, nil
}

func (w *InitWizard) validateInputs() error {
	switch w.step {
	case stepInputConnection:
		switch w.provider.ID {
		case providerAzure:
			if w.inputs[0].Value() == "" {
				return fmt.Errorf("server name is required")
			}
			if w.inputs[1].Value() == "" {
				return fmt.Errorf("database name is required")
			}
		case providerGoogle:
			if w.inputs[0].Value() == "" {
				return fmt.Errorf("instance connection name is required")
			}
			if w.inputs[1].Value() == "" {
				return fmt.Errorf("database name is required")
			}
		case providerAWS:
			if w.inputs[0].Value() == "" {
				return fmt.Errorf("host is required")
			}
			if w.inputs[2].Value() == "" {
				return fmt.Errorf("database name is required")
			}
		default:
			if w.inputs[2].Value() == "" {
				return fmt.Errorf("database name is required")
			}
		}
	case stepInputSprint:
		if len(splitSites(w.inputs[0].Value())) == 0 {
			return fmt.Errorf("at least one site identifier is required")
		}
		if _, err := strconv.Atoi(w.inputs[1].Value()); err != nil {
			return fmt.Errorf("sprint number must be an integer")
		}
	}
	return nil
}

func (w *InitWizard) applyConnectionInputs() {
	conn := &w.result.Config.Connection

	switch w.provider.ID {
	case providerAzure:
		conn.Host = w.inputs[0].Value()
		conn.Port = 5432
		conn.Database = w.inputs[1].Value()
		conn.Username = w.inputs[2].Value()
		conn.SSLMode = "require"
		conn.AuthMethod = "azure"

	case providerAWS:
		conn.Host = w.inputs[0].Value()
		if port, err := strconv.Atoi(w.inputs[1].Value()); err == nil && port > 0 {
			conn.Port = port
		} else {
			conn.Port = 5432
		}
		conn.Database = w.inputs[2].Value()
		conn.Username = w.inputs[3].Value()
		conn.AWSRegion = w.inputs[4].Value()
		conn.SSLMode = "require"
		conn.AuthMethod = "aws"

	case providerGoogle:
		conn.GoogleInstance = w.inputs[0].Value()
		conn.Database = w.inputs[1].Value()
		conn.Username = w.inputs[2].Value()
		conn.AuthMethod = "google"

	default:
		conn.Host = w.inputs[0].Value()
		if conn.Host == "" {
			conn.Host = "localhost"
		}
		if port, err := strconv.Atoi(w.inputs[1].Value()); err == nil && port > 0 {
			conn.Port = port
		} else {
			conn.Port = 5432
		}
		conn.Database = w.inputs[2].Value()
		conn.Username = w.inputs[3].Value()
		if conn.Username == "" {
			conn.Username = "postgres"
		}
		conn.SSLMode = "prefer"
	}
}

func (w *InitWizard) applySprintInputs() {
	w.result.Config.HPOIDs = splitSites(w.inputs[0].Value())
	w.result.Config.Sprint, _ = strconv.Atoi(w.inputs[1].Value())
	w.result.Config.CSVDir = w.inputs[2].Value()
	if w.result.Config.CSVDir == "" {
		w.result.Config.CSVDir = "."
	}
}

func splitSites(raw string) []string {
	var sites []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			sites = append(sites, s)
		}
	}
	return sites
}

func (w InitWizard) updateSchemaChoice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, w.keys.Up), key.Matches(msg, w.keys.Down):
		w.multiSchema = !w.multiSchema
	case key.Matches(msg, w.keys.Select):
		w.result.Config.MultiSchema = w.multiSchema
		w.step = stepComplete
	case key.Matches(msg, w.keys.Back):
		w.step = stepInputSprint
		return w, w.initInputs()
	}
	return w, nil
}

func (w InitWizard) updateComplete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, w.keys.Select):
		return w, tea.Quit
	case key.Matches(msg, w.keys.Back):
		w.result.Cancelled = true
		return w, tea.Quit
	}
	return w, nil
}

// View implements tea.Model.
func (w InitWizard) View() string {
	var b strings.Builder

	b.WriteString(w.styles.Title.Render("sprintload init - Project Setup"))
	b.WriteString("\n")

	switch w.step {
	case stepSelectProvider:
		b.WriteString(w.viewProviderSelection())
	case stepInputConnection:
		b.WriteString(w.viewInputForm(w.connectionLabels()))
	case stepInputSprint:
		b.WriteString(w.viewInputForm([]string{"Sites", "Sprint number", "CSV directory"}))
	case stepSchemaChoice:
		b.WriteString(w.viewSchemaChoice())
	case stepComplete:
		b.WriteString(w.viewComplete())
	}

	return b.String()
}

func (w InitWizard) viewProviderSelection() string {
	var b strings.Builder

	b.WriteString(w.styles.Subtitle.Render("Where is your PostgreSQL database hosted?"))
	b.WriteString("\n\n")

	for i, p := range providers {
		cursor := "  "
		style := w.styles.Unselected
		symbol := "○"

		if i == w.providerIdx {
			cursor = ""
			style = w.styles.Selected
			symbol = "●"
		}

		b.WriteString(cursor)
		b.WriteString(style.Render(symbol + " " + p.Name))
		b.WriteString("\n")
		b.WriteString(w.styles.Description.Render(p.Description))
		b.WriteString("\n")
	}

	b.WriteString(w.styles.Help.Render("\n↑/↓ navigate • enter select • q quit"))

	return b.String()
}

func (w InitWizard) connectionLabels() []string {
	switch w.provider.ID {
	case providerAzure:
		return []string{"Server", "Database", "Username"}
	case providerAWS:
		return []string{"Host", "Port", "Database", "Username", "AWS region"}
	case providerGoogle:
		return []string{"Instance", "Database", "Username"}
	default:
		return []string{"Host", "Port", "Database", "Username"}
	}
}

func (w InitWizard) viewInputForm(labels []string) string {
	var b strings.Builder

	if w.step == stepInputConnection {
		b.WriteString(w.styles.Subtitle.Render("Connection settings (" + w.provider.AuthLabel + ")"))
	} else {
		b.WriteString(w.styles.Subtitle.Render("Sprint settings"))
	}
	b.WriteString("\n\n")

	for i, input := range w.inputs {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		b.WriteString(w.styles.Label.Render(label + ":"))
		b.WriteString("\n")
		b.WriteString(input.View())
		b.WriteString("\n")
	}

	if w.validationErr != "" {
		b.WriteString("\n")
		b.WriteString(w.styles.Error.Render("✗ " + w.validationErr))
		b.WriteString("\n")
	}

	b.WriteString(w.styles.Help.Render("\ntab next field • enter continue • esc back"))

	return b.String()
}

func (w InitWizard) viewSchemaChoice() string {
	var b strings.Builder

	b.WriteString(w.styles.Subtitle.Render("Give each site its own schema?"))
	b.WriteString("\n\n")

	options := []struct {
		selected bool
		name     string
		desc     string
	}{
		{!w.multiSchema, "No, shared public schema", "All sites load into the public schema"},
		{w.multiSchema, "Yes, one schema per site (recommended)", "Each site loads into a schema named after its identifier"},
	}

	for _, opt := range options {
		cursor := "  "
		style := w.styles.Unselected
		symbol := "○"

		if opt.selected {
			cursor = ""
			style = w.styles.Selected
			symbol = "●"
		}

		b.WriteString(cursor)
		b.WriteString(style.Render(symbol + " " + opt.name))
		b.WriteString("\n")
		b.WriteString(w.styles.Description.Render(opt.desc))
		b.WriteString("\n")
	}

	b.WriteString(w.styles.Help.Render("\n↑/↓ toggle • enter select • esc back"))

	return b.String()
}

func (w InitWizard) viewComplete() string {
	var b strings.Builder

	cfg := w.result.Config

	b.WriteString(w.styles.Success.Render("✓ Ready to write " + config.ConfigFileName))
	b.WriteString("\n\n")

	target := cfg.Connection.Host
	if cfg.Connection.GoogleInstance != "" {
		target = cfg.Connection.GoogleInstance
	}
	b.WriteString(fmt.Sprintf("Database: %s on %s\n", cfg.Connection.Database, target))
	b.WriteString(fmt.Sprintf("Sites:    %s\n", strings.Join(cfg.HPOIDs, ", ")))
	b.WriteString(fmt.Sprintf("Sprint:   %d\n", cfg.Sprint))
	b.WriteString(fmt.Sprintf("CSV dir:  %s\n", cfg.CSVDir))
	if cfg.MultiSchema {
		b.WriteString("Schemas:  one per site\n")
	} else {
		b.WriteString("Schemas:  shared public schema\n")
	}

	b.WriteString(w.styles.Help.Render("\nenter write config • esc cancel"))

	return b.String()
}

// Result returns the wizard result.
func (w InitWizard) Result() InitResult {
	return w.result
}

// RunInitWizard executes the init wizard.
func RunInitWizard() (InitResult, error) {
	wizard := NewInitWizard()
	p := tea.NewProgram(wizard, tea.WithAltScreen())

	model, err := p.Run()
	if err != nil {
		return InitResult{Cancelled: true}, err
	}

	return model.(InitWizard).Result(), nil
}
