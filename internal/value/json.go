package value

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"github.com/mini-avm/avm/internal/uint256"
)

// jsonValue is Value's on-the-wire shape: a kind tag plus whichever
// field that kind populates. Mirrors the tagged-enum JSON the teacher's
// corpus produces via serde's default enum representation in the
// original Rust (#[derive(Serialize, Deserialize)] on mavm::Value).
type jsonValue struct {
	Kind   string      `json:"kind"`
	Int    string      `json:"int,omitempty"`
	CodePt *CodePt     `json:"code_point,omitempty"`
	Tuple  []jsonValue `json:"tuple,omitempty"`
	Buffer []byte      `json:"buffer,omitempty"`
	Label  *Label      `json:"label,omitempty"`
}

func (v Value) toJSON() jsonValue {
	switch v.kind {
	case KindInt:
		return jsonValue{Kind: "int", Int: v.i.String()}
	case KindCodePoint:
		cp := v.cp
		return jsonValue{Kind: "codepoint", CodePt: &cp}
	case KindTuple:
		elems := make([]jsonValue, len(v.tuple))
		for i, e := range v.tuple {
			elems[i] = e.toJSON()
		}
		return jsonValue{Kind: "tuple", Tuple: elems}
	case KindBuffer:
		return jsonValue{Kind: "buffer", Buffer: v.buffer}
	default:
		l := v.label
		return jsonValue{Kind: "label", Label: &l}
	}
}

func fromJSON(jv jsonValue) (Value, error) {
	switch jv.Kind {
	case "int":
		i, err := uint256.FromDecimal(jv.Int)
		if err != nil {
			return Value{}, err
		}
		return Int(i), nil
	case "codepoint":
		if jv.CodePt == nil {
			return Value{}, fmt.Errorf("value: codepoint entry missing code_point field")
		}
		return CodePointValue(*jv.CodePt), nil
	case "tuple":
		elems := make([]Value, len(jv.Tuple))
		for i, e := range jv.Tuple {
			ev, err := fromJSON(e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = ev
		}
		return Tuple(elems...), nil
	case "buffer":
		return BufferValue(jv.Buffer), nil
	case "label":
		if jv.Label == nil {
			return Value{}, fmt.Errorf("value: label entry missing label field")
		}
		return LabelValue(*jv.Label), nil
	default:
		return Value{}, fmt.Errorf("value: unknown kind %q", jv.Kind)
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toJSON())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(b []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(b, &jv); err != nil {
		return err
	}
	parsed, err := fromJSON(jv)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// GobEncode implements gob.GobEncoder, routing through the same tagged
// representation as MarshalJSON — Value's fields are all unexported, so
// gob's reflection-based default encoding would silently encode nothing.
func (v Value) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v.toJSON()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (v *Value) GobDecode(b []byte) error {
	var jv jsonValue
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&jv); err != nil {
		return err
	}
	parsed, err := fromJSON(jv)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
