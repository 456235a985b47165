// Command rytmi-live plays a project file through the real-time engine,
// with optional MIDI input previewing notes on the first track.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/rytmi/rytmi"
	"github.com/rytmi/rytmi/editor"
	"github.com/rytmi/rytmi/engine"
	"github.com/rytmi/rytmi/midi"
	"github.com/rytmi/rytmi/oto"
	"github.com/rytmi/rytmi/version"
)

func main() {
	defaultMidiInput := flag.String("midi-input", "", "connect MIDI input to matching device, e.g. \"MPK\" connects to the first device starting with MPK")
	firstMidiInput := flag.Bool("first-midi-input", false, "connect to the first MIDI input device found")
	midiToModel := flag.Bool("midi-entry", false, "route MIDI notes to pitch entry on the selection instead of preview")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	broker := rytmi.NewBroker()
	broker.SetMIDIEventsToModel(*midiToModel)
	model := editor.NewModel(broker, recoveryFilePath())
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open project: %v\n", err)
			os.Exit(1)
		}
		if err := model.ReadProject(f); err != nil {
			f.Close()
			fmt.Fprintf(os.Stderr, "could not load project: %v\n", err)
			os.Exit(1)
		}
		f.Close()
	}
	player := engine.NewPlayer(broker)
	audioContext, err := oto.NewContext(player)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext: %v\n", err)
		os.Exit(1)
	}
	midiContext := midi.NewContext(broker)
	defer midiContext.Close()
	midiContext.TryToOpenBy(*defaultMidiInput, *firstMidiInput)
	project := model.Project()
	if ids := project.TrackIDs(); len(ids) > 0 {
		midiContext.SetPreviewTrack(ids[0])
	}
	model.SetPlaying(true)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	recoveryTicker := time.NewTicker(30 * time.Second)
	defer recoveryTicker.Stop()
	for {
		select {
		case msg := <-broker.ToModel:
			model.ProcessEngineMessage(msg)
		case <-recoveryTicker.C:
			model.SaveRecovery()
		case <-interrupt:
			model.SaveRecovery()
			rytmi.TrySend(broker.CloseEngine, struct{}{})
			rytmi.TimeoutReceive(broker.FinishedEngine, time.Second)
			audioContext.Close()
			return
		}
	}
}

func recoveryFilePath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "rytmi", "rytmi-live-recovery.json")
}
