// bench.go runs a BB84 session for each entry in the cartesian product of a
// collection of tuning parameters, e.g. intercept rate and channel noise, and
// outputs a CSV of relevant statistics for each combination, e.g. observed
// QBER and classical traffic.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"text/template"

	"github.com/alan-christopher/qkdsim/bb84"
	"github.com/alan-christopher/qkdsim/bb84/eve"
	"github.com/alan-christopher/qkdsim/internal/logging"
	flag "github.com/spf13/pflag"
)

var (
	keyLength     = flag.IntSlice("keyLength", []int{256}, "The final key lengths, in bits.")
	multiplier    = flag.IntSlice("multiplier", []int{4}, "The qubits transmitted per final key bit.")
	interceptRate = flag.Float64Slice("interceptRate", []float64{0}, "The fractions of qubits Eve intercepts. 0 disables her.")
	noise         = flag.Float64Slice("noise", []float64{0}, "The probabilities that the channel flips a bit.")
	checkFraction = flag.Float64Slice("checkFraction", []float64{bb84.DefaultCheckFraction},
		"The fractions of sifted bits disclosed for error estimation.")
	seed = flag.Int64("seed", 1234, "The seed for every experiment's randomness.")
)

var (
	inputs  = []string{"keyLength", "multiplier", "interceptRate", "noise", "checkFraction"}
	columns = []string{"KeyLength", "Multiplier", "InterceptRate", "Noise", "CheckFraction",
		"Qubits", "SiftedBits", "CheckedBits", "EmpiricalQBER", "KeyBits", "UndetectedErrors",
		"Attempts", "Messages", "ClassicalBytes", "Secure", "Succeeded"}
)

// An Experiment packages together the result of benchmarking a single
// parameterization for easy formatting.
type Experiment struct {
	// Fields corresponding to experiment parameters
	KeyLength     int
	Multiplier    int
	InterceptRate float64
	Noise         float64
	CheckFraction float64

	// Fields corresponding to experiment results
	Qubits           int
	SiftedBits       int
	CheckedBits      int
	EmpiricalQBER    float64
	KeyBits          int
	UndetectedErrors int
	Attempts         int
	Messages         int
	ClassicalBytes   int
	Secure           bool
	Succeeded        bool
}

func main() {
	flag.Parse()
	logger := logging.Discard()
	if l, err := logging.New(os.Stderr, "info"); err == nil {
		logger = l
	}
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	fmt.Println(header())
	var args [][]any
	for _, inp := range inputs {
		vals, err := lookupInput(inp)
		if err != nil {
			logger.Fatal("bad input", "name", inp, "err", err)
		}
		args = append(args, vals)
	}
	applyCartesian(func(args []any) {
		exp := &Experiment{
			KeyLength:     args[inpIndex("keyLength")].(int),
			Multiplier:    args[inpIndex("multiplier")].(int),
			InterceptRate: args[inpIndex("interceptRate")].(float64),
			Noise:         args[inpIndex("noise")].(float64),
			CheckFraction: args[inpIndex("checkFraction")].(float64),
		}
		if err := bench(exp, *seed); err != nil {
			logger.Warn("experiment failed", "experiment", *exp, "err", err)
		}
		if err := tmpl.Execute(os.Stdout, exp); err != nil {
			logger.Fatal("BUG: could not fill in line template", "err", err)
		}
	}, args)
}

func inpIndex(v string) int {
	for i, inp := range inputs {
		if inp == v {
			return i
		}
	}
	return -1
}

func bench(exp *Experiment, seed int64) error {
	cfg := bb84.Config{
		KeyLength:              exp.KeyLength,
		TransmissionMultiplier: exp.Multiplier,
		ChannelNoise:           exp.Noise,
		CheckFraction:          exp.CheckFraction,
		Rand:                   rand.New(rand.NewSource(seed)),
	}
	if exp.InterceptRate > 0 {
		cfg.Eavesdropper = &eve.Config{InterceptRate: exp.InterceptRate}
	}
	res, err := bb84.Execute(cfg)
	if err != nil {
		return err
	}
	exp.Qubits = res.TotalQubits
	exp.SiftedBits = res.SiftedBits
	exp.CheckedBits = res.CheckedBits
	exp.EmpiricalQBER = res.QBER
	exp.KeyBits = res.Key.Size()
	exp.UndetectedErrors = res.UndetectedErrors
	exp.Attempts = res.Attempts
	exp.Messages = res.Classical.MessagesSent + res.Classical.MessagesReceived
	exp.ClassicalBytes = res.Classical.BytesSent + res.Classical.BytesRead
	exp.Secure = res.Report.Secure
	exp.Succeeded = true
	return nil
}

func header() string {
	return strings.Join(columns, ", ")
}

func lineTmpl() string {
	var els []string
	for _, c := range columns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}

func lookupInput(name string) ([]any, error) {
	var r []any
	if v, err := flag.CommandLine.GetIntSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
		return r, nil
	}
	v, err := flag.CommandLine.GetFloat64Slice(name)
	if err != nil {
		return nil, err
	}
	for _, val := range v {
		r = append(r, val)
	}
	return r, nil
}

func applyCartesian(f func([]any), args [][]any) {
	for i := range args {
		if len(args[i]) == 1 {
			continue
		}
		l := make([][]any, len(args))
		r := make([][]any, len(args))
		copy(l, args)
		copy(r, args)
		l[i] = args[i][:1]
		r[i] = args[i][1:]
		applyCartesian(f, l)
		applyCartesian(f, r)
		return
	}
	x := make([]any, 0, len(args))
	for _, a := range args {
		x = append(x, a[0])
	}
	f(x)
}
