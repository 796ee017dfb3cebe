package main

import (
	"bytes"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/remeh/sizedwaitgroup"
	"gopkg.in/yaml.v3"

	"github.com/microtonal/tetrachord"
	"github.com/microtonal/tetrachord/numberline"
	"github.com/microtonal/tetrachord/oto"
	"github.com/microtonal/tetrachord/ratio"
	"github.com/microtonal/tetrachord/synth"
	"github.com/microtonal/tetrachord/version"
)

type (
	summary struct {
		Tuning     string                `yaml:"tuning"`
		Tetrachord tetrachord.Tetrachord `yaml:"tetrachord"`
		Degrees    []degreeSummary       `yaml:"degrees"`
	}

	degreeSummary struct {
		Steps    int    `yaml:"steps"`
		Cents    string `yaml:"cents"`
		Note     string `yaml:"note"`
		Fraction string `yaml:"fraction"`
		Error    string `yaml:"error"` // cents from the fraction to the tempered degree
	}
)

func main() {
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the working directory.")
	play := flag.Bool("p", false, "Play the tetrachord of each preset as an arpeggio (default behaviour when no other output is defined).")
	yamlOut := flag.Bool("y", false, "Output the derived tetrachord, its notes and fractions as a .yml file.")
	svgOut := flag.Bool("g", false, "Output the fractions on a number line as a .svg file.")
	rawOut := flag.Bool("r", false, "Output the rendered arpeggio as .raw file. By default, saves stereo float32 buffer to disk.")
	wavOut := flag.Bool("w", false, "Output the rendered arpeggio as .wav file. By default, saves stereo float32 buffer to disk.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	jobs := flag.Int("j", 4, "Number of presets processed in parallel when not playing.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.Describe("tetrachord"))
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if !*yamlOut && !*svgOut && !*rawOut && !*wavOut {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the preset
	}
	var audioContext tetrachord.AudioContext
	if *play {
		var err error
		audioContext, err = oto.NewContext()
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext: %v\n", err)
			os.Exit(1)
		}
	}
	var stdoutMu sync.Mutex
	process := func(filename string) error {
		output := func(extension string, contents []byte) error {
			if *stdout {
				stdoutMu.Lock()
				defer stdoutMu.Unlock()
				_, err := os.Stdout.Write(contents)
				return err
			}
			_, name := filepath.Split(filename)
			dir := *directory
			if dir == "" {
				var err error
				dir, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
				}
			}
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return fmt.Errorf("could not create output directory %v: %v", dir, err)
			}
			name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
			f := filepath.Join(dir, name)
			if err := os.WriteFile(f, contents, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %v", f, err)
			}
			return nil
		}
		inputBytes, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("could not read file %v: %v", filename, err)
		}
		preset, err := tetrachord.ParsePreset(inputBytes)
		if err != nil {
			return err
		}
		tc, scale, err := preset.Scale()
		if err != nil {
			return fmt.Errorf("could not derive the tetrachord: %w", err)
		}
		fractions, err := ratio.FindRatios(scale.Multiples(), preset.MinDenominator)
		if err != nil {
			return fmt.Errorf("could not find ratios: %w", err)
		}
		if *yamlOut {
			b, err := yaml.Marshal(summarize(preset.Tuning(), tc, scale, fractions))
			if err != nil {
				return fmt.Errorf("could not marshal the summary: %v", err)
			}
			if err := output(".yml", b); err != nil {
				return fmt.Errorf("error outputting .yml file: %v", err)
			}
		}
		if *svgOut {
			opts := numberline.DefaultOptions()
			opts.Title = preset.Tuning().String()
			line, err := numberline.Layout(scale.Multiples(), fractions, opts)
			if err != nil {
				return fmt.Errorf("could not lay out the number line: %w", err)
			}
			var buf bytes.Buffer
			if err := line.SVG(&buf); err != nil {
				return err
			}
			if err := output(".svg", buf.Bytes()); err != nil {
				return fmt.Errorf("error outputting .svg file: %v", err)
			}
		}
		if !*play && !*rawOut && !*wavOut {
			return nil
		}
		buffer, err := synth.Render(scale, synth.Arpeggio(scale, preset.NoteLength), synth.OptionsFor(preset))
		if err != nil {
			return fmt.Errorf("synth.Render failed: %v", err)
		}
		if *rawOut {
			raw, err := buffer.Raw(*pcm)
			if err != nil {
				return fmt.Errorf("could not generate .raw file: %v", err)
			}
			if err := output(".raw", raw); err != nil {
				return fmt.Errorf("error outputting .raw file: %v", err)
			}
		}
		if *wavOut {
			wav, err := buffer.Wav(*pcm)
			if err != nil {
				return fmt.Errorf("could not generate .wav file: %v", err)
			}
			if err := output(".wav", wav); err != nil {
				return fmt.Errorf("error outputting .wav file: %v", err)
			}
		}
		if *play {
			duration := time.Duration(buffer.Duration() * float64(time.Second))
			fmt.Fprintf(os.Stderr, "playing %v (%v, %v)\n", filename, preset.Tuning(), durafmt.Parse(duration).LimitFirstN(2))
			playWaiter := audioContext.Play(buffer.Source())
			playWaiter.Wait()
			playWaiter.Close()
		}
		return nil
	}
	var files []string
	retval := 0
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			jsonfiles, err := filepath.Glob(filepath.Join(param, "*.json"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for json files: %v\n", param, err)
				retval = 1
				continue
			}
			ymlfiles, err := filepath.Glob(filepath.Join(param, "*.yml"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for yml files: %v\n", param, err)
				retval = 1
				continue
			}
			files = append(files, ymlfiles...)
			files = append(files, jsonfiles...)
		} else {
			files = append(files, param)
		}
	}
	// the audio device plays one preset at a time
	if *play {
		*jobs = 1
	}
	var mu sync.Mutex
	swg := sizedwaitgroup.New(max(*jobs, 1))
	for _, file := range files {
		swg.Add()
		go func(file string) {
			defer swg.Done()
			if err := process(file); err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
				mu.Lock()
				retval = 1
				mu.Unlock()
			}
		}(file)
	}
	swg.Wait()
	if audioContext != nil {
		audioContext.Close()
	}
	os.Exit(retval)
}

func summarize(t tetrachord.Tuning, tc tetrachord.Tetrachord, scale tetrachord.Scale, fractions []ratio.Fraction) summary {
	ret := summary{Tuning: t.String(), Tetrachord: tc, Degrees: make([]degreeSummary, len(scale.Degrees))}
	for i, d := range scale.Degrees {
		cents := 1200 * math.Log2(d.Ratio)
		ret.Degrees[i] = degreeSummary{
			Steps:    d.Steps,
			Cents:    humanize.FtoaWithDigits(cents, 1),
			Note:     d.NoteName(),
			Fraction: fractions[i].String(),
			Error:    humanize.FtoaWithDigits(fractions[i].Cents()-cents, 1),
		}
	}
	return ret
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Tetrachord command line utility for deriving, labelling and playing tetrachords of .yml/.json presets.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
