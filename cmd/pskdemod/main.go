// Command pskdemod reads interleaved float32 I/Q samples from a file or
// stdin, runs them through pskdemod.Demodulator, and writes the recovered
// bits as packed bytes to stdout (or to -out).
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/itohio/pskdemod"
	"github.com/itohio/pskdemod/pkg/logger"
)

// fileConfig mirrors pskdemod.Config for YAML loading via -config, since
// Config itself carries no yaml tags (it's an internal detail, not a
// wire/config format).
type fileConfig struct {
	SamplesPerBaud       int  `yaml:"samplesPerBaud"`
	NumAvg               int  `yaml:"numAvg"`
	ConstelationSize     int  `yaml:"constelationSize"`
	PhaseAvg             int  `yaml:"phaseAvg"`
	DifferentialDecoding bool `yaml:"differentialDecoding"`
}

func main() {
	help := flag.Bool("help", false, "Help")
	in := flag.String("in", "", "Input file of interleaved float32 I/Q samples (default stdin)")
	out := flag.String("out", "", "Output file for packed bits (default stdout)")
	configPath := flag.String("config", "", "YAML file overriding demodulator defaults")
	chunkSyms := flag.Int("chunk", 4096, "Symbols worth of samples to read per packet")
	samplesPerBaud := flag.Int("samplesPerBaud", 10, "Oversampling factor")
	numAvg := flag.Int("numAvg", 100, "Timing energy averaging window, in symbols")
	constelationSize := flag.Int("m", 4, "Constellation size: 2, 4 or 8")
	phaseAvg := flag.Int("phaseAvg", 50, "Phase tracker window length")
	differential := flag.Bool("differential", false, "Enable differential decoding")
	sampleRate := flag.Float64("rate", 1e6, "Input sample rate in Hz")

	flag.Parse()

	if *help {
		flag.PrintDefaults()
		return
	}

	opts := []pskdemod.Option{
		pskdemod.WithSamplesPerBaud(*samplesPerBaud),
		pskdemod.WithNumAvg(*numAvg),
		pskdemod.WithConstellationSize(*constelationSize),
		pskdemod.WithPhaseAvg(*phaseAvg),
		pskdemod.WithDifferentialDecoding(*differential),
	}

	if *configPath != "" {
		// Keys absent from the file keep the values set by the flags.
		fc, err := loadConfig(*configPath, fileConfig{
			SamplesPerBaud:       *samplesPerBaud,
			NumAvg:               *numAvg,
			ConstelationSize:     *constelationSize,
			PhaseAvg:             *phaseAvg,
			DifferentialDecoding: *differential,
		})
		if err != nil {
			panic(err)
		}
		opts = append(opts,
			pskdemod.WithSamplesPerBaud(fc.SamplesPerBaud),
			pskdemod.WithNumAvg(fc.NumAvg),
			pskdemod.WithConstellationSize(fc.ConstelationSize),
			pskdemod.WithPhaseAvg(fc.PhaseAvg),
			pskdemod.WithDifferentialDecoding(fc.DifferentialDecoding),
		)
	}

	core, err := pskdemod.New(opts...)
	if err != nil {
		panic(err)
	}

	inFile := os.Stdin
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		inFile = f
	}

	outFile := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		outFile = f
	}

	sri := pskdemod.StreamSRI{StreamID: "cmdline", Xdelta: 1.0 / *sampleRate, Mode: 1}
	samplesPerPacket := *chunkSyms * *samplesPerBaud
	buf := make([]byte, samplesPerPacket*8) // complex64 = 8 bytes

	first := true
	for {
		n, readErr := io.ReadFull(inFile, buf)
		if n == 0 {
			break
		}

		samples := decodeSamples(buf[:n-n%8])
		pkt := pskdemod.InputPacket{
			Samples:    samples,
			SRI:        sri,
			SRIChanged: first,
			EOS:        readErr == io.EOF || readErr == io.ErrUnexpectedEOF,
		}
		first = false

		res, err := core.Push(pkt)
		if err != nil {
			logger.Log.Error().Err(err).Msg("push failed")
			break
		}
		if err := writeBits(outFile, res.Bits); err != nil {
			panic(err)
		}

		if pkt.EOS {
			break
		}
	}

	fmt.Fprintln(os.Stderr, "done")
}

func loadConfig(path string, fc fileConfig) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// decodeSamples parses the wire format (explicit little-endian, portable
// across host byte order) into a flat []float32, then hands off to
// Deinterleave for the (zero-copy) float-pair-to-complex64 reinterpretation.
func decodeSamples(buf []byte) []complex64 {
	n := len(buf) / 4
	iq := make([]float32, n)
	for i := 0; i < n; i++ {
		iq[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
	}
	return pskdemod.Deinterleave(iq)
}

func writeBits(w io.Writer, bits []int16) error {
	if len(bits) == 0 {
		return nil
	}
	packed := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b != 0 {
			packed[i/8] |= 1 << uint(7-i%8)
		}
	}
	_, err := w.Write(packed)
	return err
}
