// Package editor implements the mutable editing model for the pattern trees:
// copy-on-write edits with undo/redo history, multi-select batch editing, and
// the synchronization bridge that keeps the real-time engine consistent with
// committed edits.
//
// The model is owned by the editing (UI) goroutine. The engine runs on the
// audio goroutine; the two communicate only through the broker's channels, so
// no call here ever blocks on the engine.
package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rytmi/rytmi"
)

type (
	// modelData is the part of the model that gets saved to the recovery file.
	modelData struct {
		Project   rytmi.Project
		Selection Selection
		FilePath  string

		ChangedSinceSave     bool
		RecoveryFilePath     string
		ChangedSinceRecovery bool

		PrevUndoKind    string
		UndoSkipCounter int
		UndoStack       []rytmi.Project
		RedoStack       []rytmi.Project
	}

	// Model is the mutable editing state. Value edits clamp, structural edits
	// copy-on-write, and no public operation ever panics or returns an error
	// across the mutation boundary: missing targets decline silently (false),
	// per the concurrent-edit model.
	Model struct {
		d       modelData
		nodeIDs rytmi.IDPool
		broker  *rytmi.Broker

		playing      bool
		playPosition float64
		trackLevels  []float32

		// dragging is an open history batch: intermediate edits reach the
		// engine for audible feedback but leave no history entries; EndDrag
		// commits exactly one entry holding the pre-drag state.
		dragging bool
		dragUndo *rytmi.Project
	}
)

const maxUndo = 64

// NewModel creates a model with the default project, optionally recovering
// unsaved state from an earlier session.
func NewModel(broker *rytmi.Broker, recoveryFilePath string) *Model {
	m := &Model{broker: broker}
	m.setProjectNoUndo(defaultProject.Copy())
	m.d.RecoveryFilePath = recoveryFilePath
	if recoveryFilePath != "" {
		if b, err := os.ReadFile(recoveryFilePath); err == nil {
			var data modelData
			if json.Unmarshal(b, &data) == nil {
				m.d = data
				m.reseedIDs()
				m.pushAllTracks()
			}
		}
	}
	return m
}

func (m *Model) Project() rytmi.Project   { return m.d.Project }
func (m *Model) FilePath() string         { return m.d.FilePath }
func (m *Model) SetFilePath(value string) { m.d.FilePath = value }
func (m *Model) ChangedSinceSave() bool   { return m.d.ChangedSinceSave }
func (m *Model) Playing() bool            { return m.playing }
func (m *Model) PlayPosition() float64    { return m.playPosition }
func (m *Model) TrackLevels() []float32   { return m.trackLevels }

// SetProject replaces the whole project, e.g. after loading a file.
func (m *Model) SetProject(project rytmi.Project) {
	if project.Validate() != nil {
		return
	}
	m.saveUndo("SetProject", 0)
	m.setProjectNoUndo(project)
}

// ReadProject loads a project from r. When r is a file, the path is kept so
// saving goes back to the same file.
func (m *Model) ReadProject(r io.Reader) error {
	project, err := rytmi.ReadProject(r)
	if err != nil {
		return err
	}
	if err := project.Validate(); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}
	m.saveUndo("ReadProject", 0)
	m.setProjectNoUndo(project)
	if f, ok := r.(*os.File); ok {
		m.d.FilePath = f.Name()
		m.d.ChangedSinceSave = false
	}
	return nil
}

// SaveProject writes the project back to its file path, YAML for .yml and
// .yaml files, JSON otherwise.
func (m *Model) SaveProject() error {
	if m.d.FilePath == "" {
		return errors.New("no file path set")
	}
	f, err := os.Create(m.d.FilePath)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer f.Close()
	switch filepath.Ext(m.d.FilePath) {
	case ".yml", ".yaml":
		err = m.d.Project.WriteYAML(f)
	default:
		err = m.d.Project.WriteJSON(f)
	}
	if err != nil {
		return err
	}
	m.d.ChangedSinceSave = false
	return nil
}

// SetPlaying starts or stops the engine transport.
func (m *Model) SetPlaying(value bool) {
	if m.playing == value {
		return
	}
	m.playing = value
	rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgSetPlaying{Playing: value}))
}

// SetBPM sets the project tempo, clamped to 1-999.
func (m *Model) SetBPM(value int) {
	if value < 1 {
		value = 1
	}
	if value > 999 {
		value = 999
	}
	if m.d.Project.BPM == value {
		return
	}
	m.saveUndo("SetBPM", 100)
	m.d.Project.BPM = value
	rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgSetBPM{BPM: value}))
}

// ProcessEngineMessage folds one engine feedback message into the model. MIDI
// note messages routed to the model become pitch entry on the selection.
func (m *Model) ProcessEngineMessage(msg rytmi.MsgToModel) {
	if msg.HasPosition {
		m.playPosition = msg.PlayPosition
		m.playing = msg.Playing
	}
	if msg.TrackLevels != nil {
		m.trackLevels = msg.TrackLevels
	}
	switch e := msg.Data.(type) {
	case rytmi.MsgNoteOn:
		if len(m.d.Selection.NodeIDs) > 0 {
			m.SetSelectionPitch(float64(e.Pitch), false)
		}
	}
}

// BeginDrag opens a history batch for a continuous interactive edit. While the
// batch is open, edits push live state to the engine but record no history.
func (m *Model) BeginDrag() {
	if m.dragging {
		return
	}
	m.dragging = true
	snapshot := m.d.Project.Copy()
	m.dragUndo = &snapshot
}

// EndDrag closes the batch, committing exactly one history entry that
// reflects the state before the drag started.
func (m *Model) EndDrag() {
	if !m.dragging {
		return
	}
	m.dragging = false
	m.d.UndoStack = append(m.d.UndoStack, *m.dragUndo)
	m.d.RedoStack = m.d.RedoStack[:0]
	m.dragUndo = nil
	m.d.PrevUndoKind = ""
	m.limitUndoRedoLengths()
}

func (m *Model) Undo() {
	if !m.CanUndo() {
		return
	}
	m.d.RedoStack = append(m.d.RedoStack, m.d.Project.Copy())
	m.setProjectNoUndo(m.d.UndoStack[len(m.d.UndoStack)-1])
	m.d.UndoStack = m.d.UndoStack[:len(m.d.UndoStack)-1]
	m.limitUndoRedoLengths()
	m.d.PrevUndoKind = ""
}

func (m *Model) CanUndo() bool { return len(m.d.UndoStack) > 0 }

func (m *Model) Redo() {
	if !m.CanRedo() {
		return
	}
	m.d.UndoStack = append(m.d.UndoStack, m.d.Project.Copy())
	m.setProjectNoUndo(m.d.RedoStack[len(m.d.RedoStack)-1])
	m.d.RedoStack = m.d.RedoStack[:len(m.d.RedoStack)-1]
	m.limitUndoRedoLengths()
	m.d.PrevUndoKind = ""
}

func (m *Model) CanRedo() bool { return len(m.d.RedoStack) > 0 }

func (m *Model) UndoDepth() int { return len(m.d.UndoStack) }

func (m *Model) ClearUndoHistory() {
	m.d.UndoStack = m.d.UndoStack[:0]
	m.d.RedoStack = m.d.RedoStack[:0]
	m.d.PrevUndoKind = ""
}

// MarshalRecovery marshals the model data for recovery saving.
func (m *Model) MarshalRecovery() []byte {
	out, err := json.Marshal(m.d)
	if err != nil {
		return nil
	}
	if m.d.RecoveryFilePath != "" {
		os.Remove(m.d.RecoveryFilePath)
	}
	m.d.ChangedSinceRecovery = false
	return out
}

// SaveRecovery writes the model data to the recovery file on disk if there
// are unsaved changes.
func (m *Model) SaveRecovery() error {
	if !m.d.ChangedSinceRecovery {
		return nil
	}
	if m.d.RecoveryFilePath == "" {
		return errors.New("no backup file path")
	}
	out, err := json.Marshal(m.d)
	if err != nil {
		return fmt.Errorf("could not marshal recovery data: %w", err)
	}
	dir := filepath.Dir(m.d.RecoveryFilePath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		os.MkdirAll(dir, os.ModePerm)
	}
	if err := os.WriteFile(m.d.RecoveryFilePath, out, 0644); err != nil {
		return fmt.Errorf("could not write recovery file: %w", err)
	}
	m.d.ChangedSinceRecovery = false
	return nil
}

// UnmarshalRecovery restores the model data from a recovery byte slice.
func (m *Model) UnmarshalRecovery(b []byte) {
	var data modelData
	if json.Unmarshal(b, &data) != nil {
		return
	}
	m.d = data
	m.d.ChangedSinceRecovery = false
	m.reseedIDs()
	m.pushAllTracks()
}

// saveUndo records one history entry of the current state before a mutation.
// Consecutive edits of the same kind coalesce up to undoSkipping entries, so
// e.g. keyboard-repeated value nudges do not flood the history. While a drag
// batch is open nothing is recorded; EndDrag commits the single entry.
func (m *Model) saveUndo(kind string, undoSkipping int) {
	m.d.ChangedSinceSave = true
	m.d.ChangedSinceRecovery = true
	if m.dragging {
		return
	}
	if m.d.PrevUndoKind == kind && m.d.UndoSkipCounter < undoSkipping {
		m.d.UndoSkipCounter++
		return
	}
	m.d.PrevUndoKind = kind
	m.d.UndoSkipCounter = 0
	m.d.UndoStack = append(m.d.UndoStack, m.d.Project.Copy())
	m.d.RedoStack = m.d.RedoStack[:0]
	m.limitUndoRedoLengths()
}

func (m *Model) limitUndoRedoLengths() {
	if len(m.d.UndoStack) > maxUndo {
		m.d.UndoStack = m.d.UndoStack[len(m.d.UndoStack)-maxUndo:]
	}
	if len(m.d.RedoStack) > maxUndo {
		m.d.RedoStack = m.d.RedoStack[len(m.d.RedoStack)-maxUndo:]
	}
}

func (m *Model) setProjectNoUndo(project rytmi.Project) {
	m.d.Project = project
	m.reseedIDs()
	m.purgeSelection()
	m.pushAllTracks()
}

// reseedIDs rebuilds the node ID pool from every tree in the project, so
// freshly generated IDs can never collide with loaded ones.
func (m *Model) reseedIDs() {
	m.nodeIDs = rytmi.IDPool{}
	for i := range m.d.Project.Instruments {
		m.nodeIDs.Observe(&m.d.Project.Instruments[i].Root)
	}
	for i := range m.d.Project.Patterns {
		for j := range m.d.Project.Patterns[i].Instruments {
			m.nodeIDs.Observe(&m.d.Project.Patterns[i].Instruments[j].Root)
		}
	}
}

// pushAllTracks sends the full declarative state of every track to the
// engine, used after wholesale project changes (load, undo, redo).
func (m *Model) pushAllTracks() {
	if m.broker == nil {
		return
	}
	rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgSetBPM{BPM: m.d.Project.BPM}))
	for _, id := range m.d.Project.TrackIDs() {
		m.pushTrack(id)
	}
	for _, a := range m.d.Project.Automations {
		rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgUpdateAutomation{Automation: a.Copy()}))
	}
}

func (m *Model) pushTrack(id rytmi.TrackID) bool {
	if m.broker == nil {
		return false
	}
	instr, baseMeter := m.d.Project.InstrumentForTrack(id)
	if instr == nil {
		return false
	}
	settings := make(map[string]float64, len(instr.Settings))
	for k, v := range instr.Settings {
		settings[k] = v
	}
	return rytmi.TrySend(m.broker.ToEngine, any(rytmi.MsgUpdateTrack{Track: rytmi.TrackDescriptor{
		TrackID:    id,
		Kind:       instr.Kind,
		Root:       instr.Root.Copy(),
		BaseMeter:  baseMeter,
		Volume:     instr.Volume,
		Pan:        instr.Pan,
		Mute:       instr.Mute,
		Solo:       instr.Solo,
		Settings:   settings,
		SamplePath: instr.SamplePath,
	}}))
}
