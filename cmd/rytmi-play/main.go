package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rytmi/rytmi"
	"github.com/rytmi/rytmi/engine"
	"github.com/rytmi/rytmi/oto"
	"github.com/rytmi/rytmi/version"
)

func main() {
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the same directory where the original project file is.")
	play := flag.Bool("p", false, "Play the input projects (default behaviour when no other output is defined).")
	length := flag.Float64("l", 16, "Length to render, in beats.")
	rawOut := flag.Bool("r", false, "Output the rendered project as .raw file. By default, saves stereo float32 buffer to disk.")
	wavOut := flag.Bool("w", false, "Output the rendered project as .wav file. By default, saves stereo float32 buffer to disk.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if !*rawOut && !*wavOut {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the file
	}
	process := func(filename string) error {
		output := func(extension string, contents []byte) error {
			if *stdout {
				os.Stdout.Write(contents)
				return nil
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
			name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
			f := filepath.Join(dir, name)
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return fmt.Errorf("could not create output directory %v: %v", dir, err)
			}
			if err := os.WriteFile(f, contents, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %v", f, err)
			}
			return nil
		}
		inputBytes, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("could not read file %v: %v", filename, err)
		}
		project, err := rytmi.UnmarshalProject(inputBytes)
		if err != nil {
			return err
		}
		buffer, err := engine.RenderProject(project, *length)
		if err != nil {
			return fmt.Errorf("rendering failed: %v", err)
		}
		if *rawOut {
			raw, err := rytmi.Raw(buffer, *pcm)
			if err != nil {
				return fmt.Errorf("could not generate .raw file: %v", err)
			}
			if err := output(".raw", raw); err != nil {
				return fmt.Errorf("error outputting .raw file: %v", err)
			}
		}
		if *wavOut {
			wav, err := rytmi.Wav(buffer, *pcm)
			if err != nil {
				return fmt.Errorf("could not generate .wav file: %v", err)
			}
			if err := output(".wav", wav); err != nil {
				return fmt.Errorf("error outputting .wav file: %v", err)
			}
		}
		if *play {
			renderer := &bufferRenderer{buffer: buffer, done: make(chan struct{})}
			audioContext, err := oto.NewContext(renderer)
			if err != nil {
				return fmt.Errorf("could not acquire oto AudioContext: %v", err)
			}
			<-renderer.done
			// let the device drain its internal buffering before closing
			time.Sleep(200 * time.Millisecond)
			audioContext.Close()
		}
		return nil
	}
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
			files := append(ymlfiles, jsonfiles...)
			for _, file := range files {
				if err := process(file); err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else {
			if err := process(param); err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

// bufferRenderer plays a pre-rendered buffer once and then outputs silence,
// closing done when the buffer is exhausted.
type bufferRenderer struct {
	buffer []float32
	pos    int
	done   chan struct{}
	closed bool
}

func (b *bufferRenderer) Process(out []float32) {
	n := copy(out, b.buffer[b.pos:])
	b.pos += n
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	if b.pos >= len(b.buffer) && !b.closed {
		b.closed = true
		close(b.done)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Rytmi command line utility for playing and rendering .json/.yml project files.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
