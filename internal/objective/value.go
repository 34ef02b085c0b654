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

package objective

import (
	"math"
	"strconv"
)

// Value is an objective value that may be undefined, e.g. when the model has
// no feasible solution. Undefined values never take part in comparisons.
type Value struct {
	x       float64
	defined bool
}

// Defined wraps x. NaN and infinities yield an undefined Value.
func Defined(x float64) Value {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Value{}
	}
	return Value{x: x, defined: true}
}

// Undefined returns the undefined Value.
func Undefined() Value {
	return Value{}
}

// Get returns the number and whether it is defined.
func (v Value) Get() (float64, bool) {
	return v.x, v.defined
}

// IsDefined reports whether v holds a number.
func (v Value) IsDefined() bool {
	return v.defined
}

// Or returns the number, or def when v is undefined.
func (v Value) Or(def float64) float64 {
	if !v.defined {
		return def
	}
	return v.x
}

func (v Value) String() string {
	if !v.defined {
		return "undefined"
	}
	return strconv.FormatFloat(v.x, 'f', -1, 64)
}

// MarshalYAML encodes undefined values as null.
func (v Value) MarshalYAML() (interface{}, error) {
	if !v.defined {
		return nil, nil
	}
	return v.x, nil
}
