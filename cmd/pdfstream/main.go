// pdfstream runs data through a chain of PDF stream filters.
//
//	usage: pdfstream [options] [file]
//
// The input is read from file, or from standard input when no file is given.
// By default the input is raw encoded data and is decoded through the filters
// named by -filter, in order. With -stream the input is a complete stream
// object ("<< ... >> stream ... endstream") whose dictionary names the filters.
// With -encode the input is raw data that is encoded so that decoding with the
// same -filter and -parms gives it back.
//
// -filter auto guesses the chain from the data, peeling one layer at a time
// until the data is no longer recognised or is an image.
//
// -parms takes the DecodeParms in PDF syntax: a dictionary that applies to
// every filter, or an array with one dictionary (or null) per filter.
//
//	pdfstream -filter A85,Fl -parms '[null <</Predictor 12 /Columns 4>>]' in.bin
//	pdfstream -encode -stream -filter CCF -parms '<</K -1 /Columns 1728>>' page.raw
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/tsawler/pdfstream/core"
	"github.com/tsawler/pdfstream/format"
	"github.com/tsawler/pdfstream/logger"
)

func main() {
	filterList := flag.String("filter", "", "Comma-separated filter names in decoding order (e.g. AHx,FlateDecode), or auto")
	parms := flag.String("parms", "", "DecodeParms as a PDF dictionary or array")
	encode := flag.Bool("encode", false, "Encode the input instead of decoding it")
	stream := flag.Bool("stream", false, "Input (decode) or output (encode) is a complete stream object")
	dump := flag.Bool("dump", false, "Dump the stream dictionary to stderr when done")
	verbose := flag.Bool("v", false, "Log filter warnings to stderr")
	level := flag.Int("level", -1, "Deflate level used when encoding with FlateDecode")
	output := flag.String("o", "", "Output file (default stdout)")
	flag.Parse()

	if flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Usage: pdfstream [options] [file]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *verbose {
		logger.SetLogger(func(lvl logger.LogLevel, msg string, keyvals ...interface{}) {
			if lvl == logger.DebugLevel {
				return
			}
			log.Println(append([]interface{}{lvl, msg}, keyvals...)...)
		})
	}

	cfg := core.NewDefaultConfig()
	cfg.FlateLevel = *level
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid options: %v", err)
	}

	input, err := readInput(flag.Arg(0))
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	names := parseFilterList(*filterList)
	if *filterList == "auto" {
		if *encode {
			log.Fatal("-filter auto only applies when decoding")
		}
		if names, err = detectFilters(input); err != nil {
			log.Fatalf("detect filters: %v", err)
		}
		log.Printf("detected filters: %s", strings.Join(names, ","))
	}
	decodeParms, err := parseDecodeParms(*parms)
	if err != nil {
		log.Fatalf("parse -parms: %v", err)
	}

	var s *core.Stream
	var out []byte
	if *encode {
		s, err = core.NewStream(input, names, stageParms(decodeParms, len(names)), cfg)
		if err != nil {
			log.Fatalf("encode: %v", err)
		}
		out = s.Data
		if *stream {
			out = formatStream(s)
		}
	} else {
		if *stream {
			s, err = core.ParseStream(input)
			if err != nil {
				log.Fatalf("parse stream: %v", err)
			}
		} else {
			s = newRawStream(input, names, decodeParms)
		}
		out, err = s.Decode()
		if err != nil {
			log.Fatalf("decode: %v", err)
		}
	}

	if *dump {
		spew.Fdump(os.Stderr, s.Dict)
	}

	if err := writeOutput(*output, out); err != nil {
		log.Fatalf("write output: %v", err)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// parseFilterList splits a comma-separated list of filter names. A leading
// slash on a name is dropped, so "/AHx,/Fl" works too.
func parseFilterList(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimPrefix(strings.TrimSpace(name), "/")
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// parseDecodeParms parses a DecodeParms value. The result is nil, a
// core.Dict or a core.Array.
func parseDecodeParms(s string) (core.Object, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	p := core.NewParser([]byte(s))
	obj, err := p.ParseObject()
	if err != nil {
		return nil, err
	}
	if _, err := p.ParseObject(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after DecodeParms")
	}

	switch obj := obj.(type) {
	case core.Null:
		return nil, nil
	case core.Dict:
		return obj, nil
	case core.Array:
		for i, elem := range obj {
			switch elem.(type) {
			case core.Dict, core.Null:
			default:
				return nil, fmt.Errorf("DecodeParms entry %d is %v, want a dictionary or null", i, elem.Type())
			}
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("DecodeParms is %v, want a dictionary or an array", obj.Type())
	}
}

// maxDetectDepth bounds the layers detectFilters peels off.
const maxDetectDepth = 8

// detectFilters guesses the filter chain of data by recognising its outer
// encoding, decoding that layer and repeating.
func detectFilters(data []byte) ([]string, error) {
	var names []string
	for len(names) < maxDetectDepth {
		f := format.DetectFromMagic(data)
		if f == format.Unknown {
			break
		}
		names = append(names, f.String())
		if f.IsImage() {
			break
		}

		s := &core.Stream{Dict: core.Dict{"Filter": core.Name(f.String())}, Data: data}
		var err error
		if data, err = s.Decode(); err != nil {
			return nil, fmt.Errorf("layer %d looked like %v: %w", len(names)-1, f, err)
		}
	}
	return names, nil
}

// stageParms spreads a DecodeParms value over n filter stages.
func stageParms(obj core.Object, n int) []core.Dict {
	parms := make([]core.Dict, n)
	switch obj := obj.(type) {
	case core.Dict:
		for i := range parms {
			parms[i] = obj
		}
	case core.Array:
		for i := range parms {
			parms[i], _ = obj.GetDict(i)
		}
	}
	return parms
}

// newRawStream wraps encoded data in a stream whose dictionary names the
// given filters.
func newRawStream(data []byte, names []string, decodeParms core.Object) *core.Stream {
	dict := core.Dict{"Length": core.Int(len(data))}
	switch len(names) {
	case 0:
	case 1:
		dict["Filter"] = core.Name(names[0])
	default:
		arr := make(core.Array, len(names))
		for i, name := range names {
			arr[i] = core.Name(name)
		}
		dict["Filter"] = arr
	}
	if decodeParms != nil {
		dict["DecodeParms"] = decodeParms
	}
	return &core.Stream{Dict: dict, Data: data}
}

// formatStream writes s as a stream object that core.ParseStream reads back.
func formatStream(s *core.Stream) []byte {
	var buf bytes.Buffer
	buf.WriteString(s.Dict.String())
	buf.WriteString("\nstream\n")
	buf.Write(s.Data)
	buf.WriteString("\nendstream\n")
	return buf.Bytes()
}
