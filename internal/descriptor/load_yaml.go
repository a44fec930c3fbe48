package descriptor

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top-level shape of a descriptor document.
type File struct {
	Libraries map[string]Spec `yaml:"libraries"`
}

// Specs returns the libraries with names filled from their keys, in
// sorted order.
func (f File) Specs() []Spec {
	specs := make([]Spec, 0, len(f.Libraries))
	for _, name := range sortedMemberNames(f.Libraries) {
		specs = append(specs, fillNames(name, f.Libraries[name]))
	}
	return specs
}

func fillNames(name string, s Spec) Spec {
	s.Name = name
	if len(s.Members) > 0 {
		members := make(map[string]Spec, len(s.Members))
		for k, m := range s.Members {
			members[k] = fillNames(k, m)
		}
		s.Members = members
	}
	for i, inst := range s.Instances {
		if len(inst.Members) == 0 {
			continue
		}
		members := make(map[string]Spec, len(inst.Members))
		for k, m := range inst.Members {
			members[k] = fillNames(k, m)
		}
		s.Instances[i].Members = members
	}
	return s
}

// UnmarshalYAML decodes construction args through the ir value mapping.
func (i *InstanceSpec) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Args    []any           `yaml:"args"`
		Members map[string]Spec `yaml:"members"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	i.Members = raw.Members
	i.Args = nil
	for idx, a := range raw.Args {
		v, err := ValueOf(a)
		if err != nil {
			return fmt.Errorf("line %d: args[%d]: %w", node.Line, idx, err)
		}
		i.Args = append(i.Args, v)
	}
	return nil
}

// ParseYAML decodes a descriptor document.
func ParseYAML(data []byte) ([]Spec, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse descriptors: %w", err)
	}
	if len(f.Libraries) == 0 {
		return nil, fmt.Errorf("parse descriptors: no libraries defined")
	}
	return f.Specs(), nil
}

// LoadYAML reads a descriptor document from disk.
func LoadYAML(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptors: %w", err)
	}
	return ParseYAML(data)
}
