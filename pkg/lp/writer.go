/*
Copyright 2025 The llm-d Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package lp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// termsPerLine keeps LP lines well below the 255 character limit of some readers.
const termsPerLine = 8

var errNoObjective = errors.New("model has no objective")

// WriteLP writes m in CPLEX LP format. Expression constants are moved to the
// right-hand side of constraints and dropped from the objective; callers that
// need the true objective value evaluate the expression on the solution.
func (m *Model) WriteLP(w io.Writer) error {
	if m.objective == nil {
		return errNoObjective
	}
	if err := m.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\ Model %s\n", m.name)
	if m.objective.Sense == Minimize {
		bw.WriteString("Minimize\n")
	} else {
		bw.WriteString("Maximize\n")
	}
	obj := m.objective.Expr.Compact()
	if len(obj.Terms) == 0 && len(m.vars) > 0 {
		// LP readers require at least one term in the objective row.
		obj.Terms = []Term{{Var: m.vars[0].Name, Coef: 0}}
	}
	writeRow(bw, objectiveLabel(m.objective.Name), obj.Terms)
	bw.WriteString("\n")

	bw.WriteString("Subject To\n")
	for _, c := range m.constraints {
		e := c.Expr.Compact()
		if len(e.Terms) == 0 {
			return fmt.Errorf("constraint %q has no variable terms", c.Name)
		}
		writeRow(bw, c.Name, e.Terms)
		fmt.Fprintf(bw, " %s %s\n", c.Rel, formatNumber(c.RHS-e.Constant))
	}

	var bounds, generals, binaries []string
	for _, v := range m.vars {
		switch v.Domain {
		case Binary:
			if v.Fixed && v.Upper == 0 {
				// a Binary section entry would reset the bounds to [0, 1]
				generals = append(generals, v.Name)
				bounds = append(bounds, fmt.Sprintf(" %s = 0", v.Name))
				continue
			}
			binaries = append(binaries, v.Name)
			continue
		case Integer:
			generals = append(generals, v.Name)
		}
		if b := boundLine(v); b != "" {
			bounds = append(bounds, b)
		}
	}
	if len(bounds) > 0 {
		bw.WriteString("Bounds\n")
		for _, b := range bounds {
			bw.WriteString(b)
			bw.WriteString("\n")
		}
	}
	writeSection(bw, "General", generals)
	writeSection(bw, "Binary", binaries)
	bw.WriteString("End\n")
	return bw.Flush()
}

func objectiveLabel(name string) string {
	if name == "" {
		return "obj"
	}
	return name
}

func writeRow(bw *bufio.Writer, label string, terms []Term) {
	fmt.Fprintf(bw, " %s:", label)
	for i, t := range terms {
		if i > 0 && i%termsPerLine == 0 {
			bw.WriteString("\n   ")
		}
		sign := "+"
		coef := t.Coef
		if coef < 0 || (coef == 0 && math.Signbit(coef)) {
			sign = "-"
			coef = -coef
		}
		fmt.Fprintf(bw, " %s %s %s", sign, formatNumber(coef), t.Var)
	}
}

func boundLine(v Var) string {
	lower, upper := v.Lower, v.UpperBound()
	switch {
	case math.IsInf(lower, -1) && math.IsInf(upper, 1):
		return fmt.Sprintf(" %s free", v.Name)
	case lower == 0 && math.IsInf(upper, 1):
		return ""
	case math.IsInf(upper, 1):
		return fmt.Sprintf(" %s >= %s", v.Name, formatNumber(lower))
	case lower == upper:
		return fmt.Sprintf(" %s = %s", v.Name, formatNumber(lower))
	case math.IsInf(lower, -1):
		return fmt.Sprintf(" -inf <= %s <= %s", v.Name, formatNumber(upper))
	default:
		return fmt.Sprintf(" %s <= %s <= %s", formatNumber(lower), v.Name, formatNumber(upper))
	}
}

func writeSection(bw *bufio.Writer, title string, names []string) {
	if len(names) == 0 {
		return
	}
	bw.WriteString(title)
	bw.WriteString("\n")
	for i := 0; i < len(names); i += termsPerLine {
		end := i + termsPerLine
		if end > len(names) {
			end = len(names)
		}
		bw.WriteString(" ")
		bw.WriteString(strings.Join(names[i:end], " "))
		bw.WriteString("\n")
	}
}

func formatNumber(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
