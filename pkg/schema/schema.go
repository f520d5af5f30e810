// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

// Package schema describes AWS request and response shapes by reading the
// struct tags the SDK generates for them.
package schema

import (
	"reflect"
	"time"
)

// Shape is the schema of a request or response type
type Shape struct {
	Name   string   `json:"name"`
	Fields []*Field `json:"fields"`
}

// Field is one member of a shape. Name is the key accepted in block input
// and LocationName the wire name when the service uses a different one.
// Fields is set for structures and Member for the elements of lists and
// the values of maps.
type Field struct {
	Name         string   `json:"name,omitempty"`
	LocationName string   `json:"location_name,omitempty"`
	Type         string   `json:"type"`
	Required     bool     `json:"required,omitempty"`
	Sensitive    bool     `json:"sensitive,omitempty"`
	Enum         string   `json:"enum,omitempty"`
	Fields       []*Field `json:"fields,omitempty"`
	Member       *Field   `json:"member,omitempty"`
}

var timeType = reflect.TypeOf(time.Time{})

// Of builds the shape of v, which must be a struct or a pointer to one
func Of(v interface{}) *Shape {
	t := indirect(reflect.TypeOf(v))
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	return &Shape{
		Name:   t.Name(),
		Fields: fieldsOf(t, map[reflect.Type]bool{}),
	}
}

// Required lists the names of the required top level fields
func (s *Shape) Required() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Lookup finds a top level field by name
func (s *Shape) Lookup(name string) (*Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// fieldsOf walks the exported members of a structure. path holds the types
// being described above this one so recursive shapes stop at the first repeat.
func fieldsOf(t reflect.Type, path map[reflect.Type]bool) []*Field {
	if path[t] {
		return nil
	}
	path[t] = true
	defer delete(path, t)

	fields := []*Field{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue
		}

		f := describe(sf.Type, sf.Tag.Get("type"), path)
		f.Name = sf.Name
		if loc := sf.Tag.Get("locationName"); loc != sf.Name {
			f.LocationName = loc
		}
		f.Required = sf.Tag.Get("required") == "true"
		f.Sensitive = sf.Tag.Get("sensitive") == "true"
		f.Enum = sf.Tag.Get("enum")
		fields = append(fields, f)
	}
	return fields
}

func describe(t reflect.Type, typeTag string, path map[reflect.Type]bool) *Field {
	t = indirect(t)

	f := &Field{Type: typeTag}
	if f.Type == "" {
		f.Type = typeOf(t)
	}

	switch f.Type {
	case "structure":
		if t.Kind() == reflect.Struct {
			f.Fields = fieldsOf(t, path)
		}
	case "list":
		if t.Kind() == reflect.Slice {
			f.Member = describe(t.Elem(), "", path)
		}
	case "map":
		if t.Kind() == reflect.Map {
			f.Member = describe(t.Elem(), "", path)
		}
	}
	return f
}

// typeOf infers the shape type of an untagged Go type, which happens for list
// elements and map values
func typeOf(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int64:
		return "long"
	case reflect.Int, reflect.Int32, reflect.Int16, reflect.Int8:
		return "integer"
	case reflect.Float64:
		return "double"
	case reflect.Float32:
		return "float"
	case reflect.Struct:
		if t == timeType {
			return "timestamp"
		}
		return "structure"
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "blob"
		}
		return "list"
	case reflect.Map:
		return "map"
	default:
		return "jsonvalue"
	}
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
