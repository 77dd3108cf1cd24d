package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/arlott/frigatemx/internal/discovery"
	"github.com/arlott/frigatemx/internal/frigateconf"
	"github.com/arlott/frigatemx/internal/labels"
	"github.com/arlott/frigatemx/internal/rtsp"
)

// ============================================================================
// Messages
// ============================================================================

// camerasSavedMsg is sent when the async save command finishes.
type camerasSavedMsg struct {
	outcome *SaveOutcome
	err     error
}

// SaveOutcome describes a completed config write for the success screen.
type SaveOutcome struct {
	Path        string
	CameraNames []string
	Created     bool // true when the config file was written for the first time
}

// ============================================================================
// Camera form
// ============================================================================

// Form fields in render order. The cursor walks these indexes while a
// camera is being edited.
const (
	fieldName = iota
	fieldIP
	fieldUsername
	fieldPassword
	fieldURL
	fieldObjects
	fieldDetectWidth
	fieldDetectHeight
	fieldDetectFPS
	fieldRecord
	fieldAlertDays
	fieldDetectionDays
	fieldCount
)

// formSnapshot captures the values of a form so edits can be detected by
// comparison instead of flags hung off individual widgets.
type formSnapshot struct {
	name, ip, username, password, url, objects string
	width, height, fps                         string
	record                                     bool
	alertDays, detectionDays                   string
}

// CameraForm is the explicit view state for one camera in the editor.
// Each form owns its input widgets and is addressed through the
// controller by a stable ID, so deleting or renaming a camera never
// depends on its position in the list or its display name.
type CameraForm struct {
	// ID is stable for the lifetime of the form. It survives renames.
	ID string

	Name     textinput.Model
	IP       textinput.Model
	Username textinput.Model
	Password textinput.Model
	URL      textinput.Model
	Objects  textinput.Model

	DetectWidth  textinput.Model
	DetectHeight textinput.Model
	DetectFPS    textinput.Model

	RecordEnabled bool
	AlertDays     textinput.Model
	DetectionDays textinput.Model

	// Manufacturer comes from discovery and drives URL synthesis. Blank
	// for manual and pre-existing cameras.
	Manufacturer string

	// Source state. origNode is the raw YAML subtree the camera was
	// loaded with; nil for cameras created in this session. Forms that
	// decode cleanly keep loaded so Dirty can compare against it.
	origName string
	origNode *yaml.Node
	loaded   formSnapshot

	// locked marks an entry whose shape the editor does not understand.
	// It can be deleted but not edited, and saves pass its subtree
	// through untouched.
	locked     bool
	lockReason string
}

func newFormInput(placeholder string, charLimit, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = charLimit
	ti.Width = width
	ti.Prompt = ""
	return ti
}

// newCameraForm returns a blank form with defaults applied.
func newCameraForm(defaultUsername string) *CameraForm {
	f := &CameraForm{
		ID:       uuid.New().String(),
		Name:     newFormInput("front_door", 50, 28),
		IP:       newFormInput("192.168.1.50", 15, 18),
		Username: newFormInput("admin", 50, 24),
		Password: newFormInput("", 100, 24),
		URL:      newFormInput("(leave blank to auto-generate)", 200, 56),
		Objects:  newFormInput("person, car, dog", 200, 42),

		DetectWidth:  newFormInput("2560", 5, 8),
		DetectHeight: newFormInput("1440", 5, 8),
		DetectFPS:    newFormInput("5", 3, 6),

		AlertDays:     newFormInput("7", 4, 6),
		DetectionDays: newFormInput("3", 4, 6),
	}
	f.Password.EchoMode = textinput.EchoPassword
	f.Password.EchoCharacter = '•'

	f.Username.SetValue(defaultUsername)
	f.Objects.SetValue(strings.Join(frigateconf.DefaultTrackedObjects, ", "))
	f.DetectWidth.SetValue(strconv.Itoa(frigateconf.DefaultDetectWidth))
	f.DetectHeight.SetValue(strconv.Itoa(frigateconf.DefaultDetectHeight))
	f.DetectFPS.SetValue(strconv.Itoa(frigateconf.DefaultDetectFPS))
	f.AlertDays.SetValue(strconv.Itoa(frigateconf.DefaultAlertRetainDays))
	f.DetectionDays.SetValue(strconv.Itoa(frigateconf.DefaultDetectionRetainDays))
	return f
}

// formFromDiscovered pre-fills a form from a discovery result.
func formFromDiscovered(cam *discovery.Camera, defaultUsername string) *CameraForm {
	f := newCameraForm(defaultUsername)
	if cam.ID != "" {
		f.ID = cam.ID
	}
	f.Name.SetValue(sanitizeCameraName(cam.Name))
	f.IP.SetValue(cam.IP)
	f.Manufacturer = cam.Manufacturer
	return f
}

// formFromNode builds a form for a camera already present in the config.
// Entries the typed model cannot decode come back locked so their YAML
// survives the next save byte-for-byte.
func formFromNode(name string, node *yaml.Node) *CameraForm {
	f := newCameraForm("")
	f.origName = name
	f.origNode = node
	f.Name.SetValue(name)

	var entry frigateconf.CameraEntry
	if err := node.Decode(&entry); err != nil || len(entry.FFmpeg.Inputs) == 0 {
		f.locked = true
		if err != nil {
			f.lockReason = "entry has an unrecognized layout"
		} else {
			f.lockReason = "entry has no stream inputs"
		}
		f.loaded = f.snapshot()
		return f
	}

	f.URL.SetValue(entry.FFmpeg.Inputs[0].Path)
	if entry.Objects != nil {
		f.Objects.SetValue(strings.Join(entry.Objects.Track, ", "))
	} else {
		f.Objects.SetValue("")
	}
	if entry.Detect != nil {
		f.DetectWidth.SetValue(strconv.Itoa(entry.Detect.Width))
		f.DetectHeight.SetValue(strconv.Itoa(entry.Detect.Height))
		f.DetectFPS.SetValue(strconv.Itoa(entry.Detect.FPS))
	}
	if entry.Record != nil && entry.Record.Enabled {
		f.RecordEnabled = true
		f.AlertDays.SetValue(strconv.Itoa(entry.Record.Alerts.Retain.Days))
		f.DetectionDays.SetValue(strconv.Itoa(entry.Record.Detections.Retain.Days))
	}
	f.loaded = f.snapshot()
	return f
}

func (f *CameraForm) snapshot() formSnapshot {
	return formSnapshot{
		name:          strings.TrimSpace(f.Name.Value()),
		ip:            strings.TrimSpace(f.IP.Value()),
		username:      strings.TrimSpace(f.Username.Value()),
		password:      f.Password.Value(),
		url:           strings.TrimSpace(f.URL.Value()),
		objects:       strings.TrimSpace(f.Objects.Value()),
		width:         strings.TrimSpace(f.DetectWidth.Value()),
		height:        strings.TrimSpace(f.DetectHeight.Value()),
		fps:           strings.TrimSpace(f.DetectFPS.Value()),
		record:        f.RecordEnabled,
		alertDays:     strings.TrimSpace(f.AlertDays.Value()),
		detectionDays: strings.TrimSpace(f.DetectionDays.Value()),
	}
}

// DisplayName returns the current name, falling back to the on-disk key.
func (f *CameraForm) DisplayName() string {
	if name := strings.TrimSpace(f.Name.Value()); name != "" {
		return name
	}
	if f.origName != "" {
		return f.origName
	}
	return "(unnamed)"
}

// IsNew reports whether the camera was created in this session.
func (f *CameraForm) IsNew() bool { return f.origNode == nil }

// Locked reports whether the entry is passthrough-only.
func (f *CameraForm) Locked() bool { return f.locked }

// Dirty reports whether the form differs from what was loaded. New
// cameras are always dirty.
func (f *CameraForm) Dirty() bool {
	if f.locked {
		return false
	}
	return f.origNode == nil || f.loaded != f.snapshot()
}

// Preview returns the stream URL the camera will be saved with, given
// the form's current values. It is recomputed on every render so the
// URL tracks the address and credential fields as the user types.
func (f *CameraForm) Preview() rtsp.Result {
	if url := strings.TrimSpace(f.URL.Value()); url != "" {
		return rtsp.Result{MainStream: url, DefaultURL: url}
	}
	return rtsp.Synthesize(
		strings.TrimSpace(f.IP.Value()),
		f.Manufacturer,
		strings.TrimSpace(f.Username.Value()),
		f.Password.Value(),
	)
}

// BuildEntry validates the form and produces the camera entry to save.
func (f *CameraForm) BuildEntry() (string, *frigateconf.CameraEntry, error) {
	ip := strings.TrimSpace(f.IP.Value())
	username := strings.TrimSpace(f.Username.Value())
	password := f.Password.Value()
	url := strings.TrimSpace(f.URL.Value())

	for _, obj := range frigateconf.SplitObjects(f.Objects.Value()) {
		if err := labels.Validate(obj); err != nil {
			return "", nil, frigateconf.NewValidationError(err.Error())
		}
	}

	width, err := parseFormInt("detect width", f.DetectWidth.Value())
	if err != nil {
		return "", nil, err
	}
	height, err := parseFormInt("detect height", f.DetectHeight.Value())
	if err != nil {
		return "", nil, err
	}
	fps, err := parseFormInt("detect fps", f.DetectFPS.Value())
	if err != nil {
		return "", nil, err
	}

	b := frigateconf.NewCameraBuilder(strings.TrimSpace(f.Name.Value())).
		SetAddress(ip).
		SetCredentials(username, password).
		SetObjects(f.Objects.Value()).
		SetDetectSize(width, height).
		SetDetectFPS(fps)

	switch {
	case url != "":
		b.SetStreamURL(url)
	case username != "" && password != "":
		// The vendor-aware URL only replaces the generic one once the
		// pieces pass the same checks the generic path would get.
		if err := frigateconf.ValidateIPAddress(ip); err != nil {
			return "", nil, err
		}
		if err := frigateconf.ValidateUsername(username); err != nil {
			return "", nil, err
		}
		if err := frigateconf.ValidatePassword(password); err != nil {
			return "", nil, err
		}
		b.SetStreamURL(rtsp.Synthesize(ip, f.Manufacturer, username, password).DefaultURL)
	}

	if f.RecordEnabled {
		alert, err := parseFormInt("alert retention days", f.AlertDays.Value())
		if err != nil {
			return "", nil, err
		}
		detection, err := parseFormInt("detection retention days", f.DetectionDays.Value())
		if err != nil {
			return "", nil, err
		}
		b.EnableRecording(alert, detection)
	}

	return b.Build()
}

func parseFormInt(field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, frigateconf.NewValidationError(fmt.Sprintf("%s must be a number", field))
	}
	if n <= 0 {
		return 0, frigateconf.NewValidationError(fmt.Sprintf("%s must be greater than zero", field))
	}
	return n, nil
}

// sanitizeCameraName rewrites a discovered display name into one the
// config validator accepts.
func sanitizeCameraName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), " _-")
	if len(out) < 2 {
		return "camera"
	}
	return out
}

// ============================================================================
// Camera controller
// ============================================================================

// CameraController owns the set of camera forms being edited. Every
// operation takes the form's stable ID. Display order follows the order
// cameras were loaded or added.
type CameraController struct {
	order []string
	forms map[string]*CameraForm
}

// NewCameraController returns an empty controller.
func NewCameraController() *CameraController {
	return &CameraController{forms: make(map[string]*CameraForm)}
}

// LoadDocument populates the controller from a parsed config.
func (c *CameraController) LoadDocument(doc *frigateconf.Document) {
	cams := doc.Cameras()
	for _, name := range cams.Names() {
		node, ok := cams.Node(name)
		if !ok {
			continue
		}
		c.Add(formFromNode(name, node))
	}
}

// Add registers a form and returns its ID.
func (c *CameraController) Add(form *CameraForm) string {
	c.order = append(c.order, form.ID)
	c.forms[form.ID] = form
	return form.ID
}

// AddDiscovered creates a form from a discovery result, deduplicating
// the display name against cameras already present.
func (c *CameraController) AddDiscovered(cam *discovery.Camera, defaultUsername string) string {
	form := formFromDiscovered(cam, defaultUsername)
	base := strings.TrimSpace(form.Name.Value())
	name := base
	for i := 2; c.NameInUse(name, form.ID); i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	form.Name.SetValue(name)
	return c.Add(form)
}

// Get returns the form with the given ID.
func (c *CameraController) Get(id string) (*CameraForm, bool) {
	f, ok := c.forms[id]
	return f, ok
}

// IDs returns the form IDs in display order.
func (c *CameraController) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Forms returns the forms in display order.
func (c *CameraController) Forms() []*CameraForm {
	out := make([]*CameraForm, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.forms[id])
	}
	return out
}

// Len reports how many cameras the controller holds.
func (c *CameraController) Len() int { return len(c.order) }

// Delete removes the form with the given ID. It reports whether a form
// was removed.
func (c *CameraController) Delete(id string) bool {
	if _, ok := c.forms[id]; !ok {
		return false
	}
	delete(c.forms, id)
	for i, other := range c.order {
		if other == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Rename validates a new display name and applies it to the form with
// the given ID. The ID itself never changes.
func (c *CameraController) Rename(id, name string) error {
	form, ok := c.forms[id]
	if !ok {
		return frigateconf.NewValidationError("no such camera")
	}
	if form.locked {
		return frigateconf.NewValidationError("this entry cannot be edited")
	}
	name = strings.TrimSpace(name)
	if err := frigateconf.ValidateCameraName(name); err != nil {
		return err
	}
	if c.NameInUse(name, id) {
		return frigateconf.NewValidationError(fmt.Sprintf("a camera named %q already exists", name))
	}
	form.Name.SetValue(name)
	return nil
}

// NameInUse reports whether another form already uses the given name.
func (c *CameraController) NameInUse(name string, exceptID string) bool {
	name = strings.TrimSpace(name)
	for id, form := range c.forms {
		if id == exceptID {
			continue
		}
		if strings.EqualFold(form.DisplayName(), name) {
			return true
		}
	}
	return false
}

// DirtyCount reports how many forms have unsaved changes.
func (c *CameraController) DirtyCount() int {
	n := 0
	for _, form := range c.forms {
		if form.Dirty() {
			n++
		}
	}
	return n
}

// BuildSet converts the forms into a camera set ready to save. Forms
// loaded from the config and never touched pass their original YAML
// subtrees through unchanged, so keys the editor does not model
// survive. A rename with no other edits moves the original subtree to
// the new name for the same reason. Edited and new forms are rebuilt
// and validated.
func (c *CameraController) BuildSet() (*frigateconf.CameraSet, error) {
	set := frigateconf.NewCameraSet()
	for _, id := range c.order {
		form := c.forms[id]

		if form.origNode != nil {
			cur := form.snapshot()
			if form.locked || cur == form.loaded {
				set.SetNode(form.origName, form.origNode)
				continue
			}
			renamed := form.loaded
			renamed.name = cur.name
			if cur == renamed {
				if err := frigateconf.ValidateCameraName(cur.name); err != nil {
					return nil, fmt.Errorf("camera %q: %w", form.DisplayName(), err)
				}
				if set.Has(cur.name) {
					return nil, fmt.Errorf("camera %q: %w", cur.name,
						frigateconf.NewValidationError("duplicate camera name"))
				}
				set.SetNode(cur.name, form.origNode)
				continue
			}
		}

		name, entry, err := form.BuildEntry()
		if err != nil {
			return nil, fmt.Errorf("camera %q: %w", form.DisplayName(), err)
		}
		if set.Has(name) {
			return nil, fmt.Errorf("camera %q: %w", name,
				frigateconf.NewValidationError("duplicate camera name"))
		}
		if err := set.Set(name, entry); err != nil {
			return nil, fmt.Errorf("camera %q: %w", name, err)
		}
	}
	return set, nil
}

// ============================================================================
// Key maps
// ============================================================================

type camerasNavKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Edit   key.Binding
	Add    key.Binding
	Delete key.Binding
	Save   key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func newCamerasNavKeyMap() camerasNavKeyMap {
	return camerasNavKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add camera"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save config"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k camerasNavKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Edit, k.Add, k.Delete, k.Save, k.Back}
}

func (k camerasNavKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Edit},
		{k.Add, k.Delete, k.Save},
		{k.Back, k.Quit},
	}
}

type camerasEditKeyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Confirm key.Binding
	Toggle  key.Binding
	Done    key.Binding
}

func newCamerasEditKeyMap() camerasEditKeyMap {
	return camerasEditKeyMap{
		Next: key.NewBinding(
			key.WithKeys("down", "tab"),
			key.WithHelp("↓/tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("up", "shift+tab"),
			key.WithHelp("↑", "prev field"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm field"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Done: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "done editing"),
		),
	}
}

func (k camerasEditKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Confirm, k.Toggle, k.Done}
}

func (k camerasEditKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Confirm, k.Toggle, k.Done},
	}
}

// ============================================================================
// Cameras model
// ============================================================================

// CamerasModel is the camera editor screen. A list of cameras sits above
// a detail form for the selected one; editing happens inline on the
// form's fields.
type CamerasModel struct {
	Initialized bool

	Controller *CameraController
	Store      *frigateconf.Store
	Report     *frigateconf.RecoveryReport

	// DefaultUsername pre-fills the username field of new forms.
	DefaultUsername string

	// Cursor indexes Controller.IDs() while navigating the list.
	Cursor int

	// EditingID is non-empty while a form is being edited inline.
	EditingID   string
	FieldCursor int
	// editStart holds the focused field's value when focus arrived, so
	// esc on the name field can back out of a half-typed rename.
	editStart string
	FieldErr  error

	ShowingDeleteConfirm bool
	ShowingSaving        bool
	ShowingSaveError     bool
	ModalCursor          int

	SaveErr  error
	FatalErr error
	Saved    *SaveOutcome
	Notice   string

	ReportDismissed bool

	Spinner  spinner.Model
	Help     help.Model
	NavKeys  camerasNavKeyMap
	EditKeys camerasEditKeyMap

	BackRequested bool

	Width  int
	Height int
}

// NewCamerasModel builds the editor from a loaded document. doc may be
// nil when no config file exists yet; the first save creates it.
func NewCamerasModel(store *frigateconf.Store, doc *frigateconf.Document, report *frigateconf.RecoveryReport, defaultUsername string) CamerasModel {
	controller := NewCameraController()
	if doc != nil {
		controller.LoadDocument(doc)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	return CamerasModel{
		Initialized:     true,
		Controller:      controller,
		Store:           store,
		Report:          report,
		DefaultUsername: defaultUsername,
		Spinner:         sp,
		Help:            help.New(),
		NavKeys:         newCamerasNavKeyMap(),
		EditKeys:        newCamerasEditKeyMap(),
		Width:           MinTerminalWidth,
		Height:          24,
	}
}

// Init starts the spinner used by the saving modal.
func (m CamerasModel) Init() tea.Cmd {
	return m.Spinner.Tick
}

// AddDiscovered inserts a camera carried over from the discovery screen
// and moves the cursor to it.
func (m *CamerasModel) AddDiscovered(cam *discovery.Camera) {
	id := m.Controller.AddDiscovered(cam, m.DefaultUsername)
	m.Cursor = m.indexOf(id)
	m.Notice = fmt.Sprintf("Added %s from discovery", cam.IP)
}

func (m *CamerasModel) indexOf(id string) int {
	for i, other := range m.Controller.IDs() {
		if other == id {
			return i
		}
	}
	return 0
}

func (m *CamerasModel) selectedID() string {
	ids := m.Controller.IDs()
	if len(ids) == 0 || m.Cursor < 0 || m.Cursor >= len(ids) {
		return ""
	}
	return ids[m.Cursor]
}

func (m *CamerasModel) selectedForm() *CameraForm {
	id := m.selectedID()
	if id == "" {
		return nil
	}
	form, _ := m.Controller.Get(id)
	return form
}

// Update handles messages for the cameras screen.
func (m CamerasModel) Update(msg tea.Msg) (CamerasModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case camerasSavedMsg:
		m.ShowingSaving = false
		if msg.err != nil {
			var cfgErr *frigateconf.ConfigError
			if errors.As(msg.err, &cfgErr) && cfgErr.Type == frigateconf.ErrTypeValidation {
				m.SaveErr = msg.err
				m.ShowingSaveError = true
				return m, nil
			}
			m.FatalErr = msg.err
			return m, nil
		}
		m.Saved = msg.outcome
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.ShowingSaving:
			// Ignore keys while the save runs.
			return m, nil
		case m.ShowingSaveError:
			return m.updateSaveErrorModal(msg)
		case m.ShowingDeleteConfirm:
			return m.updateDeleteConfirm(msg)
		case m.EditingID != "":
			return m.updateEditing(msg)
		default:
			return m.updateNav(msg)
		}
	}

	// Everything else (cursor blinks) goes to the focused input.
	if m.EditingID != "" {
		if form, ok := m.Controller.Get(m.EditingID); ok {
			if in := form.inputAt(m.FieldCursor); in != nil {
				var cmd tea.Cmd
				*in, cmd = in.Update(msg)
				return m, cmd
			}
		}
	}

	return m, nil
}

func (m CamerasModel) updateNav(msg tea.KeyMsg) (CamerasModel, tea.Cmd) {
	m.Notice = ""

	switch {
	case key.Matches(msg, m.NavKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.NavKeys.Back):
		m.BackRequested = true
		return m, nil

	case key.Matches(msg, m.NavKeys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil

	case key.Matches(msg, m.NavKeys.Down):
		if m.Cursor < m.Controller.Len()-1 {
			m.Cursor++
		}
		return m, nil

	case key.Matches(msg, m.NavKeys.Add):
		id := m.Controller.Add(newCameraForm(m.DefaultUsername))
		m.Cursor = m.indexOf(id)
		return m.enterEditing(id)

	case key.Matches(msg, m.NavKeys.Edit):
		form := m.selectedForm()
		if form == nil {
			return m, nil
		}
		if form.Locked() {
			m.Notice = fmt.Sprintf("%s: %s. It can be deleted but not edited.",
				form.DisplayName(), form.lockReason)
			return m, nil
		}
		return m.enterEditing(form.ID)

	case key.Matches(msg, m.NavKeys.Delete):
		if m.selectedForm() != nil {
			m.ShowingDeleteConfirm = true
			m.ModalCursor = 0
		}
		return m, nil

	case key.Matches(msg, m.NavKeys.Save):
		if m.Controller.Len() == 0 {
			m.Notice = "Nothing to save: add a camera first"
			return m, nil
		}
		if m.Controller.DirtyCount() == 0 && m.Store.Exists() {
			m.Notice = "No changes to save"
			return m, nil
		}
		m.ShowingSaving = true
		return m, tea.Batch(m.Spinner.Tick, saveCameras(m.Store, m.Controller))
	}

	return m, nil
}

func (m CamerasModel) enterEditing(id string) (CamerasModel, tea.Cmd) {
	m.EditingID = id
	m.FieldCursor = fieldName
	m.FieldErr = nil
	m.focusField()
	return m, textinput.Blink
}

// inputAt returns the editable input behind a field index, or nil for
// the record toggle.
func (f *CameraForm) inputAt(idx int) *textinput.Model {
	switch idx {
	case fieldName:
		return &f.Name
	case fieldIP:
		return &f.IP
	case fieldUsername:
		return &f.Username
	case fieldPassword:
		return &f.Password
	case fieldURL:
		return &f.URL
	case fieldObjects:
		return &f.Objects
	case fieldDetectWidth:
		return &f.DetectWidth
	case fieldDetectHeight:
		return &f.DetectHeight
	case fieldDetectFPS:
		return &f.DetectFPS
	case fieldAlertDays:
		return &f.AlertDays
	case fieldDetectionDays:
		return &f.DetectionDays
	}
	return nil
}

func (m *CamerasModel) focusField() {
	form, ok := m.Controller.Get(m.EditingID)
	if !ok {
		return
	}
	for i := 0; i < fieldCount; i++ {
		if in := form.inputAt(i); in != nil {
			in.Blur()
		}
	}
	if in := form.inputAt(m.FieldCursor); in != nil {
		in.Focus()
		m.editStart = in.Value()
	}
}

func (m *CamerasModel) moveField(delta int) {
	next := m.FieldCursor + delta
	if next < 0 {
		next = 0
	}
	if next >= fieldCount {
		next = fieldCount - 1
	}
	m.FieldCursor = next
	m.FieldErr = nil
	m.focusField()
}

// confirmField applies field-level validation before the cursor moves
// on. Only the name needs it: renames go through the controller so the
// new name is checked against every other camera.
func (m *CamerasModel) confirmField() bool {
	form, ok := m.Controller.Get(m.EditingID)
	if !ok {
		return true
	}
	if m.FieldCursor == fieldName {
		if err := m.Controller.Rename(m.EditingID, form.Name.Value()); err != nil {
			m.FieldErr = err
			return false
		}
	}
	m.FieldErr = nil
	return true
}

func (m CamerasModel) updateEditing(msg tea.KeyMsg) (CamerasModel, tea.Cmd) {
	form, ok := m.Controller.Get(m.EditingID)
	if !ok {
		m.EditingID = ""
		return m, nil
	}

	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.EditKeys.Done):
		if m.FieldCursor == fieldName {
			// Back out of an unconfirmed rename.
			form.Name.SetValue(m.editStart)
		}
		if in := form.inputAt(m.FieldCursor); in != nil {
			in.Blur()
		}
		m.EditingID = ""
		m.FieldErr = nil
		return m, nil

	case key.Matches(msg, m.EditKeys.Confirm):
		if !m.confirmField() {
			return m, nil
		}
		if m.FieldCursor == fieldCount-1 {
			if in := form.inputAt(m.FieldCursor); in != nil {
				in.Blur()
			}
			m.EditingID = ""
			return m, nil
		}
		m.moveField(1)
		return m, nil

	case key.Matches(msg, m.EditKeys.Next):
		if m.FieldCursor == fieldName && !m.confirmField() {
			return m, nil
		}
		m.moveField(1)
		return m, nil

	case key.Matches(msg, m.EditKeys.Prev):
		if m.FieldCursor == fieldName && !m.confirmField() {
			return m, nil
		}
		m.moveField(-1)
		return m, nil

	case m.FieldCursor == fieldRecord:
		if key.Matches(msg, m.EditKeys.Toggle) {
			form.RecordEnabled = !form.RecordEnabled
		}
		return m, nil
	}

	in := form.inputAt(m.FieldCursor)
	if in == nil {
		return m, nil
	}
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return m, cmd
}

func (m CamerasModel) updateDeleteConfirm(msg tea.KeyMsg) (CamerasModel, tea.Cmd) {
	switch msg.String() {
	case "left", "right", "tab", "h", "l":
		m.ModalCursor = 1 - m.ModalCursor
	case "enter":
		if m.ModalCursor == 1 {
			if form := m.selectedForm(); form != nil {
				name := form.DisplayName()
				m.Controller.Delete(form.ID)
				if m.Cursor >= m.Controller.Len() && m.Cursor > 0 {
					m.Cursor--
				}
				m.Notice = fmt.Sprintf("Deleted %s (save to apply)", name)
			}
		}
		m.ShowingDeleteConfirm = false
	case "esc":
		m.ShowingDeleteConfirm = false
	case "ctrl+c", "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m CamerasModel) updateSaveErrorModal(msg tea.KeyMsg) (CamerasModel, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.ShowingSaveError = false
		m.SaveErr = nil
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// saveCameras builds the camera set and writes it to the config file,
// creating a starter file first when none exists.
func saveCameras(store *frigateconf.Store, controller *CameraController) tea.Cmd {
	return func() tea.Msg {
		set, err := controller.BuildSet()
		if err != nil {
			return camerasSavedMsg{err: err}
		}

		created := false
		if !store.Exists() {
			if _, err := store.WriteInitial(); err != nil {
				return camerasSavedMsg{err: err}
			}
			created = true
		}

		doc, err := store.SaveCameras(set)
		if err != nil {
			return camerasSavedMsg{err: err}
		}

		return camerasSavedMsg{outcome: &SaveOutcome{
			Path:        store.Path(),
			CameraNames: doc.Cameras().Names(),
			Created:     created,
		}}
	}
}

// ============================================================================
// View
// ============================================================================

// View renders the cameras screen.
func (m CamerasModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("CAMERAS"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(m.Store.Path()))
	b.WriteString("\n\n")

	if m.Report != nil && m.Report.HasFindings() && !m.ReportDismissed {
		b.WriteString(m.renderRecoveryNotice())
		b.WriteString("\n\n")
	}

	if m.Controller.Len() == 0 {
		b.WriteString(SubtitleStyle.Render("No cameras configured yet."))
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render("Press 'a' to add one manually, or 'esc' to go back and scan."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderCameraList())
		b.WriteString("\n")
		if form := m.selectedForm(); form != nil {
			b.WriteString(m.renderForm(form))
		}
	}

	if m.Notice != "" {
		b.WriteString("\n")
		b.WriteString(InfoBoxStyle.Render(m.Notice))
		b.WriteString("\n")
	}

	content := b.String()

	var helpView string
	if m.EditingID != "" {
		helpView = m.Help.View(m.EditKeys)
	} else {
		helpView = m.Help.View(m.NavKeys)
	}

	view := RenderApplicationContainer(content, helpView, m.Width, m.Height)

	switch {
	case m.ShowingSaving:
		modal := lipgloss.JoinVertical(lipgloss.Center,
			TitleStyle.Render("SAVING"),
			"",
			m.Spinner.View()+" Writing camera configuration...",
		)
		return RenderModal(modal, m.Width, m.Height)
	case m.ShowingSaveError:
		return RenderModal(m.renderSaveErrorModal(), m.Width, m.Height)
	case m.ShowingDeleteConfirm:
		return RenderModal(m.renderDeleteModal(), m.Width, m.Height)
	}

	return view
}

func (m CamerasModel) renderRecoveryNotice() string {
	lines := []string{"⚠ Config recovered with changes:"}
	lines = append(lines, strings.Split(m.Report.Summary(), "\n")...)
	return WarningBoxStyle.Render(strings.Join(lines, "\n  "))
}

func (m CamerasModel) renderCameraList() string {
	var b strings.Builder
	for i, form := range m.Controller.Forms() {
		cursor := "  "
		nameStyle := MenuItemStyle
		if i == m.Cursor {
			cursor = "→ "
			nameStyle = SelectedMenuItemStyle
		}

		badge := ""
		switch {
		case form.Locked():
			badge = SubtitleStyle.Render(" [kept as-is]")
		case form.IsNew():
			badge = SuccessStyle.Render(" [new]")
		case form.Dirty():
			badge = ErrorStyle.Render(" ⚠ modified")
		}

		b.WriteString(cursor + nameStyle.Render(form.DisplayName()) + badge)
		b.WriteString("\n")
	}
	return b.String()
}

// fieldLabels maps field indexes to form labels.
var fieldLabels = [fieldCount]string{
	"Name", "IP Address", "Username", "Password", "Stream URL",
	"Tracked Objects", "Detect Width", "Detect Height", "Detect FPS",
	"Recording", "Alert Days", "Detection Days",
}

func (m CamerasModel) renderForm(form *CameraForm) string {
	if form.Locked() {
		return SubtitleStyle.Render(fmt.Sprintf("  %s. The entry is preserved exactly as found.", form.lockReason))
	}

	editing := m.EditingID == form.ID

	var b strings.Builder

	section := func(title string) {
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render(title))
		b.WriteString("\n")
	}

	row := func(idx int) {
		label := fieldLabels[idx]
		cursor := "  "
		if editing && m.FieldCursor == idx {
			cursor = "→ "
		}

		var value string
		switch idx {
		case fieldRecord:
			if form.RecordEnabled {
				value = SuccessStyle.Render("enabled")
			} else {
				value = SubtitleStyle.Render("disabled")
			}
			if editing && m.FieldCursor == idx {
				value += SubtitleStyle.Render("  (space to toggle)")
			}
		default:
			in := form.inputAt(idx)
			if editing && m.FieldCursor == idx {
				value = in.View()
			} else if in.Value() == "" {
				value = SubtitleStyle.Render("(not set)")
			} else if idx == fieldPassword {
				value = strings.Repeat("•", len(in.Value()))
			} else {
				value = in.Value()
			}
		}

		b.WriteString(fmt.Sprintf("%s%-16s %s\n", cursor, label+":", value))

		if editing && m.FieldCursor == idx && m.FieldErr != nil {
			b.WriteString("    " + ErrorStyle.Render("✗ "+m.FieldErr.Error()) + "\n")
		}
	}

	section("CAMERA")
	row(fieldName)

	section("CONNECTION")
	row(fieldIP)
	row(fieldUsername)
	row(fieldPassword)
	row(fieldURL)

	preview := form.Preview()
	previewLine := preview.DefaultURL
	if previewLine == "" {
		previewLine = SubtitleStyle.Render("(fill in address and credentials)")
	} else if preview.ManufacturerDetected {
		previewLine += SuccessStyle.Render("  ✓ " + strings.ToLower(form.Manufacturer) + " profile")
	}
	b.WriteString("  " + SubtitleStyle.Render("Preview:") + "         " + previewLine + "\n")

	section("DETECTION")
	row(fieldObjects)
	row(fieldDetectWidth)
	row(fieldDetectHeight)
	row(fieldDetectFPS)

	section("RECORDING")
	row(fieldRecord)
	if form.RecordEnabled {
		row(fieldAlertDays)
		row(fieldDetectionDays)
	} else if editing && (m.FieldCursor == fieldAlertDays || m.FieldCursor == fieldDetectionDays) {
		row(m.FieldCursor)
	}

	return b.String()
}

func (m CamerasModel) renderDeleteModal() string {
	form := m.selectedForm()
	name := ""
	if form != nil {
		name = form.DisplayName()
	}

	cancel := "[ Cancel ]"
	confirm := "[ Delete ]"
	if m.ModalCursor == 0 {
		cancel = SelectedMenuItemStyle.Render(cancel)
		confirm = MenuItemStyle.Render(confirm)
	} else {
		cancel = MenuItemStyle.Render(cancel)
		confirm = ErrorStyle.Render(confirm)
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		TitleStyle.Render("DELETE CAMERA"),
		"",
		fmt.Sprintf("Remove %q from the configuration?", name),
		SubtitleStyle.Render("The change is written on the next save."),
		"",
		cancel+"   "+confirm,
	)
}

func (m CamerasModel) renderSaveErrorModal() string {
	msg := ""
	if m.SaveErr != nil {
		msg = m.SaveErr.Error()
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		ErrorStyle.Render("SAVE FAILED"),
		"",
		wrapModalText(msg, 52),
		"",
		SubtitleStyle.Render("Press enter to go back and fix the form."),
	)
}

// wrapModalText folds a long message to fit inside a modal.
func wrapModalText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
