// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package evaluation

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/buildlog"
)

// constantTemplate is a real constant-assignment build failure with
// the varying parts replaced by {placeholder} tokens: an XML schema
// warning, an IEC compiler diagnostic, and the trailing failure
// banners the correlator folds into it.
const constantTemplate = `[{timestamp}]: Building project...
[{timestamp}]: Cannot build project.
[{timestamp}]: Cannot build project.
stdout: Warning: PLC XML file doesn't follow XSD schema at line {xml_line}:
Element '{http://www.plcopen.org/xml/tc6_0201}data': Missing child element(s). Expected is one of ( {*}*, * ).Start build in /tmp/.{build_dir}/build
Generating SoftPLC IEC-61131 ST/IL/SFC code...
Collecting data types
Collecting POUs
Generate POU program0
Generate Config(s)
Compiling IEC Program into C code...
0.000s 0.101s 0.201s 0.301s
"/root/beremiz/matiec/iec2c" -f -l -p -I "/root/beremiz/matiec/lib" -T "/tmp/.{build_dir}/build" "/tmp/.{build_dir}/build/plc.st"
Warning: exited with status 1 (pid {pid})
0.342s
Warning: /tmp/.{build_dir}/build/plc.st:{error_line}-4..{error_line}-12: error: Assignment to CONSTANT variables is not allowed.
Warning: In section: PROGRAM {program_name}
Warning: {line_marker}: {var1} := {var2};
Warning: 1 error(s) found. Bailing out!
Warning:
Error: Error : IEC to C compiler returned 1
Error: PLC code generation failed !
`

// emptyProjectTemplate is a real empty-project build failure: the
// same XML schema warning followed by a code-generator crash relayed
// as a traceback on stderr.
const emptyProjectTemplate = `[{timestamp}]: Building project...
[{timestamp}]: Cannot build project.
[{timestamp}]: Cannot build project.
stdout: Warning: PLC XML file doesn't follow XSD schema at line {xml_line}:
Element '{http://www.plcopen.org/xml/tc6_0201}data': Missing child element(s). Expected is one of ( {*}*, * ).Start build in /tmp/.{build_dir}/build
Generating SoftPLC IEC-61131 ST/IL/SFC code...
Collecting data types
Collecting POUs
Generate POU program0

stderr: Traceback (most recent call last):
  File "/root/beremiz/Beremiz_cli.py", line 130, in <module>
    cli()
  File "/usr/local/lib/python3.10/dist-packages/click/core.py", line 1130, in __call__
    return self.main(*args, **kwargs)
  File "/usr/local/lib/python3.10/dist-packages/click/core.py", line 1055, in main
    rv = self.invoke(ctx)
  File "/root/beremiz/PLCGenerator.py", line {error_line}, in ComputeProgram
    self.ParentGenerator.GeneratePouProgramInText({attribute}.upper())
AttributeError: 'NoneType' object has no attribute 'upper'
`

var (
	variableNames = []string{"LocalVar0", "LocalVar1", "GlobalVar", "TempVar", "ConfigVar", "StatusFlag"}
	programNames  = []string{"program0", "main_program", "control_loop", "init_sequence"}
	buildDirs     = []string{"tmpMngQvj", "tmpL3UKDb", "tmpXkz9Pw", "tmpQrs4Tu"}
	attributes    = []string{"text", "value", "content", "data"}
)

// GroundTruth is the overall judgment a correct classifier should
// reach for a sample.
type GroundTruth struct {
	Severity    buildlog.Severity   `json:"severity"`
	Stage       buildlog.Stage      `json:"stage"`
	Complexity  buildlog.Complexity `json:"complexity"`
	Description string              `json:"description"`
}

// ExpectedError holds the labels one extracted error should carry,
// in detection order.
type ExpectedError struct {
	ErrorType  string            `json:"error_type"`
	Stage      buildlog.Stage    `json:"stage"`
	Severity   buildlog.Severity `json:"severity"`
	LineNumber int               `json:"line_number"`
}

// Sample is one synthetic build log together with everything a
// correct pipeline should say about it.
type Sample struct {
	// Name identifies the sample, e.g. "constant-0007".
	Name string `json:"name"`

	// Log is the raw build log text.
	Log string `json:"log"`

	// Expected lists the errors extraction should find.
	Expected []ExpectedError `json:"expected_errors"`

	// Cascading is the has_cascading_errors flag the parse should
	// set.
	Cascading bool `json:"cascading"`

	// Truth is the overall classification ground truth.
	Truth GroundTruth `json:"ground_truth"`
}

// Generator produces synthetic build-log samples. The same seed
// always yields the same samples in the same order.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator seeded for reproducible output.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate returns count samples: roughly 60% constant-assignment
// failures and 40% empty-project crashes, shuffled. Every sample's
// log has a distinct fingerprint; colliding draws are retried.
func (generator *Generator) Generate(count int) []Sample {
	constantCount := count * 6 / 10

	samples := make([]Sample, 0, count)
	seen := make(map[string]bool)

	// The parameter space dwarfs any realistic count, so collision
	// retries terminate quickly.
	for len(samples) < count {
		var sample Sample
		if len(samples) < constantCount {
			sample = generator.constantSample(len(samples))
		} else {
			sample = generator.emptyProjectSample(len(samples))
		}
		fingerprint := buildlog.Fingerprint(sample.Log)
		if seen[fingerprint] {
			continue
		}
		seen[fingerprint] = true
		samples = append(samples, sample)
	}

	generator.rng.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})
	return samples
}

// constantSample renders one constant-assignment failure variant.
func (generator *Generator) constantSample(sequence int) Sample {
	xmlLine := generator.intBetween(20, 100)
	errorLine := generator.intBetween(20, 50)

	log := strings.NewReplacer(
		"{timestamp}", generator.timestamp(),
		"{xml_line}", strconv.Itoa(xmlLine),
		"{build_dir}", generator.pick(buildDirs),
		"{pid}", strconv.Itoa(generator.intBetween(100, 999)),
		"{error_line}", strconv.Itoa(errorLine),
		"{program_name}", generator.pick(programNames),
		"{line_marker}", fmt.Sprintf("%04d", generator.intBetween(20, 50)),
		"{var1}", generator.pick(variableNames),
		"{var2}", generator.pick(variableNames),
	).Replace(constantTemplate)

	return Sample{
		Name: fmt.Sprintf("constant-%04d", sequence),
		Log:  log,
		Expected: []ExpectedError{
			{
				ErrorType:  "XMLValidationError",
				Stage:      buildlog.StageXMLValidation,
				Severity:   buildlog.DefaultSeverity(buildlog.StageXMLValidation),
				LineNumber: xmlLine,
			},
			{
				ErrorType:  "IECCompilationError",
				Stage:      buildlog.StageIECCompilation,
				Severity:   buildlog.DefaultSeverity(buildlog.StageIECCompilation),
				LineNumber: errorLine,
			},
		},
		Cascading: true,
		Truth: GroundTruth{
			Severity:    buildlog.SeverityBlocking,
			Stage:       buildlog.StageIECCompilation,
			Complexity:  buildlog.ComplexityTrivial,
			Description: "Assignment to CONSTANT variable in IEC code",
		},
	}
}

// emptyProjectSample renders one empty-project crash variant.
func (generator *Generator) emptyProjectSample(sequence int) Sample {
	xmlLine := generator.intBetween(20, 100)
	errorLine := generator.intBetween(900, 1000)

	log := strings.NewReplacer(
		"{timestamp}", generator.timestamp(),
		"{xml_line}", strconv.Itoa(xmlLine),
		"{build_dir}", generator.pick(buildDirs),
		"{error_line}", strconv.Itoa(errorLine),
		"{attribute}", generator.pick(attributes),
	).Replace(emptyProjectTemplate)

	return Sample{
		Name: fmt.Sprintf("empty-project-%04d", sequence),
		Log:  log,
		Expected: []ExpectedError{
			{
				ErrorType:  "XMLValidationError",
				Stage:      buildlog.StageXMLValidation,
				Severity:   buildlog.DefaultSeverity(buildlog.StageXMLValidation),
				LineNumber: xmlLine,
			},
			{
				ErrorType:  "AttributeError",
				Stage:      buildlog.StageCodeGeneration,
				Severity:   buildlog.DefaultSeverity(buildlog.StageCodeGeneration),
				LineNumber: errorLine,
			},
		},
		Cascading: true,
		Truth: GroundTruth{
			Severity:    buildlog.SeverityBlocking,
			Stage:       buildlog.StageCodeGeneration,
			Complexity:  buildlog.ComplexityModerate,
			Description: "AttributeError due to None object during code generation",
		},
	}
}

// timestamp renders a build-driver wall-clock token in the range the
// real logs show.
func (generator *Generator) timestamp() string {
	return fmt.Sprintf("%02d:%02d:%02d",
		generator.intBetween(10, 23),
		generator.intBetween(0, 59),
		generator.intBetween(0, 59))
}

// intBetween returns a random int in [low, high], both inclusive.
func (generator *Generator) intBetween(low, high int) int {
	return low + generator.rng.Intn(high-low+1)
}

func (generator *Generator) pick(pool []string) string {
	return pool[generator.rng.Intn(len(pool))]
}
