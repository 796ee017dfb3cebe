package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/microtonal/tetrachord"
	"github.com/microtonal/tetrachord/cmd"
	"github.com/microtonal/tetrachord/midi"
	"github.com/microtonal/tetrachord/version"
)

func main() {
	input := flag.String("in", "", "Open the first MIDI input whose name starts with this.")
	output := flag.String("out", "", "Forward the tuned notes to the first MIDI output whose name starts with this.")
	first := flag.Bool("first", false, "Open the first MIDI input available.")
	base := flag.Uint("base", 60, "Key that plays the root; the following keys play the rest of the tetrachord.")
	bendRange := flag.Float64("bend", midi.DefaultBendRange, "Pitch bend range of the output synthesizer, in semitones.")
	list := flag.Bool("l", false, "List MIDI devices and exit.")
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.Describe("tetrachord-midi"))
		os.Exit(0)
	}
	if *help || flag.NArg() > 1 {
		flag.Usage()
		os.Exit(0)
	}
	if *base > 127 {
		log.Fatalf("base key should be between 0 and 127, got %v", *base)
	}
	preset := tetrachord.DefaultPreset()
	if flag.NArg() == 1 {
		b, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			log.Fatalf("could not read file %v: %v", flag.Arg(0), err)
		}
		if preset, err = tetrachord.ParsePreset(b); err != nil {
			log.Fatal(err)
		}
	}
	_, scale, err := preset.Scale()
	if err != nil {
		log.Fatalf("could not derive the tetrachord: %v", err)
	}

	context := cmd.NewMidiContext()
	defer context.Close()
	if *list {
		fmt.Println("inputs:")
		context.InputDevices(func(d midi.Device) bool {
			fmt.Println("  " + d.String())
			return true
		})
		fmt.Println("outputs:")
		context.OutputDevices(func(d midi.Device) bool {
			fmt.Println("  " + d.String())
			return true
		})
		return
	}
	if err := context.OpenInput(*input, *first || *input == ""); err != nil {
		log.Fatalf("could not open MIDI input: %v", err)
	}
	forward := *output != ""
	if forward {
		if err := context.OpenOutput(*output, false); err != nil {
			log.Fatalf("could not open MIDI output: %v", err)
		}
	}
	keyboard := midi.Keyboard{Base: uint8(*base), Degrees: len(scale.Degrees)}
	log.Printf("playing %v from key %v, ctrl-c to quit", preset.Tuning(), keyboard.Base)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	for {
		select {
		case <-interrupt:
			return
		case msg := <-context.Events():
			event, ok := keyboard.Event(msg)
			if !ok {
				continue
			}
			d, _ := scale.Degree(event.Degree)
			// every degree bends on a channel of its own
			channel := uint8(event.Degree - 1)
			if event.On {
				log.Printf("degree %v on: %v, speed %.4f", event.Degree, d.NoteName(), d.Speed)
			}
			if !forward {
				continue
			}
			if err := send(context, scale, event, channel, *bendRange); err != nil {
				log.Printf("could not send degree %v: %v", event.Degree, err)
			}
		}
	}
}

func send(context midi.Context, scale tetrachord.Scale, event midi.DegreeEvent, channel uint8, bendRange float64) error {
	if !event.On {
		msg, err := midi.NoteOffMessage(scale, event.Degree, channel)
		if err != nil {
			return err
		}
		return context.Send(msg)
	}
	msgs, err := midi.NoteMessages(scale, event.Degree, channel, event.Velocity, bendRange)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := context.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Plays the tetrachord of a .yml/.json preset from a MIDI keyboard, forwarding the tuned notes to a MIDI output.\nUsage: %s [flags] [preset]\n", os.Args[0])
	flag.PrintDefaults()
}
