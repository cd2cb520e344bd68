// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/mlnoga/rgtools/internal/conv"
	"github.com/mlnoga/rgtools/internal/dispatch"
	"github.com/mlnoga/rgtools/internal/frame"
	"github.com/mlnoga/rgtools/internal/logx"
	"github.com/mlnoga/rgtools/internal/native"
	"github.com/mlnoga/rgtools/internal/ops"
	"github.com/mlnoga/rgtools/internal/rest"
	"github.com/mlnoga/rgtools/internal/rg"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out = flag.String("out", "out.png", "save output to `file`. With several inputs, %d is replaced by the frame number")
var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")
var pipeline = flag.String("pipeline", "", "run the operator pipeline from the given JSON `file`")

var modes = flag.String("modes", "2", "comma-separated per-plane modes. For rgm, separate per-plane sequences with semicolons, e.g. 11,20;4")
var planes = flag.String("planes", "", "comma-separated plane indices to process, blank for all")
var iter = flag.String("iter", "", "rgm: comma-separated per-plane iteration counts, blank for sequence lengths")
var radius = flag.String("radius", "1", "blur, sbr, minblur: comma-separated per-plane radii in 0..12")
var direction = flag.String("direction", "s", "blur, sbr, minblur: window direction s(quare), h(orizontal) or v(ertical)")
var box = flag.Bool("box", false, "blur: box blur instead of gaussian")
var horizontal = flag.Bool("horizontal", false, "vclean: clean horizontally instead of vertically")
var sharpen = flag.String("sharpen", "", "sharpen after filtering, one of sbr, minblur, contra, conv, unsharp or blank for no op")
var amount = flag.Float64("amount", 1, "conv: sharpening amount, negative values blur")
var strength = flag.Float64("strength", 100, "unsharp: strength in percent")

var family = flag.String("family", "", "convert loaded frames to color family gray, rgb, yuv or lab, blank to keep")
var format = flag.String("format", "", "convert loaded frames to sample format, e.g. int8, int16, float32, blank to keep")
var useNative = flag.Bool("native", true, "use the native backend where it supports a mode")
var workers = flag.Int("workers", 0, "frames processed concurrently, 0=auto from memory and CPUs")

var addr = flag.String("addr", ":8080", "serve: listen on given `address`")
var chroot = flag.String("chroot", "", "serve: chroot to given directory before serving")
var setuid = flag.Int("setuid", -1, "serve: switch to given user id before serving, -1=no op")

func main() {
	logWriter := logx.Writer()
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `rgtools Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] command (args)

Commands:
  removegrain img0 ... imgn  Apply remove-grain with per-plane -modes
  repair subject reference   Repair subject image with the neighborhoods of the reference image
  rgm img0 ... imgn          Apply remove-grain repeatedly with per-plane mode sequences
  clense img0 ... imgn       Temporal median of each frame with its predecessor and successor
  vclean img0 ... imgn       Vertical (or -horizontal) cleaner with per-plane -modes 1 or 2
  blur img0 ... imgn         Gaussian (or -box) blur with per-plane -radius and -direction
  stats img0 ... imgn        Show per-plane statistics and noise estimates
  run                        Run the operator pipeline given with -pipeline
  modes                      Show modes and the backend chosen for -format
  expr family mode           Show the stack program of a mode
  eval family mode x n1..n8  Evaluate a mode on center x and eight neighbors NW,N,NE,W,E,SW,S,SE
  serve                      Serve the REST API on -addr
  legal                      Show license and attribution information
  version                    Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	// Initialize logging to file in addition to stdout, if selected
	if *log == "%auto" {
		if *out != "" && needsOut(args[0]) {
			*log = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".log"
			*log = strings.ReplaceAll(*log, "%d", "")
		} else {
			*log = ""
		}
	}
	if *log != "" {
		if err := logx.AlsoToFile(*log); err != nil {
			logx.Fatalf("Unable to open logfile '%s'\n", *log)
		}
	}
	defer logx.Close()

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			logx.Fatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logx.Fatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	var plugin dispatch.Plugin
	if *useNative {
		plugin = native.New()
	}
	caps := dispatch.DetectCapabilities(plugin)

	var err error
	switch args[0] {
	case "removegrain", "rgm", "clense", "vclean", "blur", "stats", "run":
		err = cmdPipeline(args[0], args[1:], caps)

	case "repair":
		err = cmdRepair(args[1:], caps)

	case "modes":
		err = cmdModes(caps)

	case "expr":
		err = cmdExpr(args[1:])

	case "eval":
		err = cmdEval(args[1:])

	case "serve":
		logx.Printf("Serving on %s with %v\n", *addr, caps)
		if err = rest.MakeSandbox(*chroot, *setuid); err == nil {
			err = rest.Serve(*addr, caps)
		}

	case "legal":
		fmt.Fprint(logWriter, legal)

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	if needsOut(args[0]) {
		fmt.Fprintf(logWriter, "\nDone after %v\n", time.Since(start))
	}

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			logx.Fatal("Could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			logx.Fatal("Could not write allocation profile: ", err)
		}
	}

	if err != nil {
		logx.Fatalf("Error: %s\n", err.Error())
	}
}

// Returns true if the command processes image files
func needsOut(cmd string) bool {
	switch cmd {
	case "removegrain", "repair", "rgm", "clense", "vclean", "blur", "stats", "run":
		return true
	}
	return false
}

// Builds the pipeline for a file processing command from the flags, logs and runs it
func cmdPipeline(cmd string, files []string, caps dispatch.Capabilities) error {
	c := ops.NewContext(logx.Writer(), caps)
	c.AllowAnyPath = true
	if *workers > 0 {
		c.MaxThreads = *workers
	}

	var op ops.Operator
	var err error
	if cmd == "run" {
		if op, err = loadPipeline(*pipeline); err != nil {
			return err
		}
	} else {
		if len(files) == 0 {
			return fmt.Errorf("%s needs at least one input file", cmd)
		}
		if op, err = buildPipeline(cmd, files); err != nil {
			return err
		}
	}

	m, err := json.MarshalIndent(op, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Log, "Running with %v and these settings:\n%s\n", caps, string(m))

	fs, err := ops.Run(op, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Log, "Processed %d frames\n", len(ops.RemoveNils(fs)))
	return nil
}

func loadPipeline(fileName string) (ops.Operator, error) {
	if fileName == "" {
		return nil, fmt.Errorf("run needs a -pipeline file")
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	return ops.UnmarshalOperator(data)
}

func buildPipeline(cmd string, files []string) (ops.Operator, error) {
	ps, err := parseInts(*planes)
	if err != nil {
		return nil, fmt.Errorf("planes: %w", err)
	}
	seq := ops.NewOpSequence(ops.NewOpLoadMany(files))
	if *family != "" || *format != "" {
		var fmtArg rg.Format
		if *format != "" {
			if fmtArg, err = rg.ParseFormat(*format); err != nil {
				return nil, err
			}
		}
		seq.Append(ops.NewOpConvert(*family, fmtArg))
	}

	d, err := conv.ParseDirection(*direction)
	if err != nil {
		return nil, err
	}
	rs, err := parseInts(*radius)
	if err != nil {
		return nil, fmt.Errorf("radius: %w", err)
	}
	if len(rs) == 0 {
		rs = []int{1}
	}

	var filt ops.Operator
	switch cmd {
	case "removegrain":
		ms, err := parseModes(*modes)
		if err != nil {
			return nil, err
		}
		filt = ops.NewOpRemoveGrain(ms, ps)

	case "rgm":
		var seqs [][]rg.Mode
		for _, s := range strings.Split(*modes, ";") {
			ms, err := parseModes(s)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, ms)
		}
		iters, err := parseInts(*iter)
		if err != nil {
			return nil, fmt.Errorf("iter: %w", err)
		}
		filt = ops.NewOpRemoveGrainM(seqs, iters, ps)

	case "clense":
		filt = ops.NewOpClense(ps)

	case "vclean":
		ms, err := parseInts(*modes)
		if err != nil {
			return nil, err
		}
		filt = ops.NewOpCleaner(ms, *horizontal, ps)

	case "blur":
		filt = ops.NewOpBlur(rs, !*box, d, nil, ps)

	case "stats":
		seq.Append(ops.NewOpStats(true))
		return seq, nil
	}

	switch *sharpen {
	case "":
		seq.Append(filt)
	case "sbr", "minblur":
		seq.Append(filt, ops.NewOpSharpen(*sharpen == "minblur", rs, d, ps))
	case "contra":
		seq.Append(ops.NewOpContraSharpen(0, 13, ps, filt))
	case "conv":
		seq.Append(filt, ops.NewOpSharpenConv(*amount, *amount, 1, ps))
	case "unsharp":
		seq.Append(filt, ops.NewOpUnsharpMask(1, *strength, ps))
	default:
		return nil, fmt.Errorf("unknown sharpening '%s'", *sharpen)
	}
	seq.Append(ops.NewOpStats(false), ops.NewOpSave(*out))
	return seq, nil
}

// Repairs the first image with the neighborhoods of the second
func cmdRepair(files []string, caps dispatch.Capabilities) error {
	if len(files) != 2 {
		return fmt.Errorf("repair needs a subject and a reference file, got %d", len(files))
	}
	ms, err := parseModes(*modes)
	if err != nil {
		return err
	}
	ps, err := parseInts(*planes)
	if err != nil {
		return fmt.Errorf("planes: %w", err)
	}
	c := ops.NewContext(logx.Writer(), caps)
	subject, err := frame.Load(files[0])
	if err != nil {
		return err
	}
	reference, err := frame.Load(files[1])
	if err != nil {
		return err
	}
	res, err := c.Engine.Repair(subject, reference, ms, ps)
	if err != nil {
		return err
	}
	logx.Printf("Repaired %v with modes %v from %s\n", res, ms, files[1])
	logx.Printf("Writing %v frame to %s\n", res, *out)
	return res.Save(*out, c.Engine.Workers)
}

// Lists all modes with the backend chosen for the sample format
func cmdModes(caps dispatch.Capabilities) error {
	f := rg.FormatFloat
	if *format != "" {
		var err error
		if f, err = rg.ParseFormat(*format); err != nil {
			return err
		}
	}
	logx.Printf("Capabilities: %v\nFormat: %v\n", caps, f)
	for _, fam := range []rg.Family{rg.Repair, rg.RemoveGrain} {
		for m := rg.Mode(0); m <= rg.MaxMode; m++ {
			p, err := dispatch.NewPlan(caps, fam, []rg.Mode{m}, f)
			if err != nil {
				logx.Printf("%-12s %2d  %v\n", fam, m, err)
				continue
			}
			logx.Printf("%-12s %2d  %v\n", fam, m, p.Steps[0])
		}
	}
	return nil
}

func parseFamilyMode(args []string) (rg.Family, rg.Mode, error) {
	if len(args) < 2 {
		return 0, 0, fmt.Errorf("need a family and a mode")
	}
	fam, err := rg.ParseFamily(args[0])
	if err != nil {
		return 0, 0, err
	}
	m, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid mode '%s'", args[1])
	}
	return fam, rg.Mode(m), nil
}

func cmdExpr(args []string) error {
	fam, m, err := parseFamilyMode(args)
	if err != nil {
		return err
	}
	f := rg.FormatFloat
	if *format != "" {
		if f, err = rg.ParseFormat(*format); err != nil {
			return err
		}
	}
	text, err := rg.Text(fam, m, f)
	if err != nil {
		return err
	}
	fmt.Fprintln(logx.Writer(), text)
	return nil
}

// Evaluates a mode on one neighborhood. Repair takes the subject center first,
// then the reference center and the reference neighbors
func cmdEval(args []string) error {
	fam, m, err := parseFamilyMode(args)
	if err != nil {
		return err
	}
	want := 9
	if fam == rg.Repair {
		want = 10
	}
	if len(args)-2 != want {
		return fmt.Errorf("%s needs %d sample values, got %d", fam, want, len(args)-2)
	}
	vals := make([]float64, want)
	for i, s := range args[2:] {
		if vals[i], err = strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("invalid sample '%s'", s)
		}
	}
	f := rg.FormatFloat
	if *format != "" {
		if f, err = rg.ParseFormat(*format); err != nil {
			return err
		}
	}
	r := rg.Request{Family: fam, Mode: m, Subject: vals[0], Reference: vals[0], Format: f}
	if fam == rg.Repair {
		r.Reference = vals[1]
	}
	copy(r.ReferenceNeighbors[:], vals[want-8:])
	v, err := rg.Evaluate(&r)
	if err != nil {
		return err
	}
	fmt.Fprintf(logx.Writer(), "%v\n", v)
	if f.Integer {
		fmt.Fprintf(logx.Writer(), "quantized %v\n", rg.Quantize(v, f))
	}
	return nil
}

// Parses a comma-separated list of integers. Blank yields nil
func parseInts(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	res := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid number '%s'", p)
		}
		res[i] = v
	}
	return res, nil
}

func parseModes(s string) ([]rg.Mode, error) {
	is, err := parseInts(s)
	if err != nil {
		return nil, fmt.Errorf("modes: %w", err)
	}
	if len(is) == 0 {
		return nil, fmt.Errorf("modes: empty list")
	}
	ms := make([]rg.Mode, len(is))
	for i, v := range is {
		ms[i] = rg.Mode(v)
	}
	return ms, nil
}
