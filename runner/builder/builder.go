package builder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateName = errors.New("duplicate kernel parameter name")
	ErrInvalidName   = errors.New("invalid kernel parameter name")
	ErrInvalidView   = errors.New("invalid view specification")
)

// DataType represents the precision of numerical data
type DataType int

const (
	Float32 DataType = iota + 1
	Float64
	INT32
	INT64
)

// ViewSpec describes a device view as kernel code sees it: a base pointer
// named NAME_data plus the offset arithmetic of the view's layout.
type ViewSpec struct {
	Name     string
	DataType DataType
	Origin   int
	Extents  []int
	Strides  []int
	ReadOnly bool
}

// Rank of the described view
func (vs ViewSpec) Rank() int { return len(vs.Extents) }

// Validate checks the name and that extents and strides agree
func (vs ViewSpec) Validate() error {
	if !isIdentifier(vs.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, vs.Name)
	}
	if len(vs.Extents) != len(vs.Strides) {
		return fmt.Errorf("%w: %s has %d extents and %d strides",
			ErrInvalidView, vs.Name, len(vs.Extents), len(vs.Strides))
	}
	if vs.Origin < 0 {
		return fmt.Errorf("%w: %s has negative origin %d", ErrInvalidView, vs.Name, vs.Origin)
	}
	for k := range vs.Extents {
		if vs.Extents[k] < 0 || vs.Strides[k] < 0 {
			return fmt.Errorf("%w: %s axis %d extent %d stride %d",
				ErrInvalidView, vs.Name, k, vs.Extents[k], vs.Strides[k])
		}
	}
	if TypeName(vs.DataType) == "" {
		return fmt.Errorf("%w: %s has no element type", ErrInvalidView, vs.Name)
	}
	return nil
}

// Param returns the kernel argument declaration for the view's base pointer
func (vs ViewSpec) Param() string {
	qualifier := ""
	if vs.ReadOnly {
		qualifier = "const "
	}
	return fmt.Sprintf("%s%s* %s_data", qualifier, TypeName(vs.DataType), vs.Name)
}

// ScalarSpec describes a by-value kernel argument
type ScalarSpec struct {
	Name     string
	DataType DataType
}

// Param returns the kernel argument declaration for the scalar
func (ss ScalarSpec) Param() string {
	return fmt.Sprintf("const %s %s", TypeName(ss.DataType), ss.Name)
}

// Builder generates kernel preambles for a set of device views
type Builder struct {
	// Type configuration
	FloatType DataType
	IntType   DataType

	// Views in registration order
	Views   []ViewSpec
	Scalars []ScalarSpec
	names   map[string]bool

	// Generated code
	KernelPreamble string
}

// Config holds configuration for creating a Builder
type Config struct {
	FloatType DataType
	IntType   DataType
}

// NewBuilder creates a new Builder instance
func NewBuilder(cfg Config) *Builder {
	// Set defaults
	floatType := cfg.FloatType
	if floatType == 0 {
		floatType = Float64
	}
	intType := cfg.IntType
	if intType == 0 {
		intType = INT64
	}
	return &Builder{
		FloatType: floatType,
		IntType:   intType,
		names:     make(map[string]bool),
	}
}

// AddView registers a view for macro generation
func (kb *Builder) AddView(spec ViewSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if kb.names[spec.Name] {
		return fmt.Errorf("%w: %s", ErrDuplicateName, spec.Name)
	}
	spec.Extents = append([]int(nil), spec.Extents...)
	spec.Strides = append([]int(nil), spec.Strides...)
	kb.names[spec.Name] = true
	kb.Views = append(kb.Views, spec)
	return nil
}

// AddScalar registers a by-value kernel argument
func (kb *Builder) AddScalar(spec ScalarSpec) error {
	if !isIdentifier(spec.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, spec.Name)
	}
	if TypeName(spec.DataType) == "" {
		return fmt.Errorf("%w: scalar %s has no type", ErrInvalidView, spec.Name)
	}
	if kb.names[spec.Name] {
		return fmt.Errorf("%w: %s", ErrDuplicateName, spec.Name)
	}
	kb.names[spec.Name] = true
	kb.Scalars = append(kb.Scalars, spec)
	return nil
}

// GetView looks up a registered view by name
func (kb *Builder) GetView(name string) (ViewSpec, bool) {
	for _, vs := range kb.Views {
		if vs.Name == name {
			return vs, true
		}
	}
	return ViewSpec{}, false
}

// GetScalar looks up a registered scalar by name
func (kb *Builder) GetScalar(name string) (ScalarSpec, bool) {
	for _, ss := range kb.Scalars {
		if ss.Name == name {
			return ss, true
		}
	}
	return ScalarSpec{}, false
}

// GeneratePreamble emits type definitions followed by per view macros
func (kb *Builder) GeneratePreamble() string {
	var sb strings.Builder

	// 1. Type definitions and constants
	sb.WriteString(kb.generateTypeDefinitions())

	// 2. Extent constants and accessors
	for _, vs := range kb.Views {
		sb.WriteString(GenerateViewMacros(vs))
	}

	kb.KernelPreamble = sb.String()
	return kb.KernelPreamble
}

// generateTypeDefinitions creates type definitions based on precision settings
func (kb *Builder) generateTypeDefinitions() string {
	var sb strings.Builder

	floatSuffix := ""
	if kb.FloatType == Float32 {
		floatSuffix = "f"
	}

	sb.WriteString(fmt.Sprintf("typedef %s real_t;\n", TypeName(kb.FloatType)))
	sb.WriteString(fmt.Sprintf("typedef %s int_t;\n", TypeName(kb.IntType)))
	sb.WriteString(fmt.Sprintf("#define REAL_ZERO 0.0%s\n", floatSuffix))
	sb.WriteString(fmt.Sprintf("#define REAL_ONE 1.0%s\n", floatSuffix))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateViewMacros emits NAME_RANK, NAME_EXTENT_k, NAME_SIZE and the
// accessor NAME(i0, ...) that indexes NAME_data with the view's strides.
func GenerateViewMacros(vs ViewSpec) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("// View %s: extents %v strides %v origin %d\n",
		vs.Name, vs.Extents, vs.Strides, vs.Origin))
	sb.WriteString(fmt.Sprintf("#define %s_RANK %d\n", vs.Name, vs.Rank()))
	size := 1
	for k, n := range vs.Extents {
		sb.WriteString(fmt.Sprintf("#define %s_EXTENT_%d %d\n", vs.Name, k, n))
		size *= n
	}
	sb.WriteString(fmt.Sprintf("#define %s_SIZE %d\n", vs.Name, size))

	args := make([]string, vs.Rank())
	terms := []string{fmt.Sprintf("%d", vs.Origin)}
	for k := range vs.Extents {
		args[k] = fmt.Sprintf("i%d", k)
		terms = append(terms, fmt.Sprintf("(i%d)*%d", k, vs.Strides[k]))
	}
	sb.WriteString(fmt.Sprintf("#define %s(%s) (%s_data[%s])\n",
		vs.Name, strings.Join(args, ", "), vs.Name, strings.Join(terms, " + ")))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateKernelSignature joins view and scalar declarations in argument order:
// views first, then scalars.
func GenerateKernelSignature(views []ViewSpec, scalars []ScalarSpec) string {
	params := make([]string, 0, len(views)+len(scalars))
	for _, vs := range views {
		params = append(params, vs.Param())
	}
	for _, ss := range scalars {
		params = append(params, ss.Param())
	}
	return strings.Join(params, ",\n\t")
}

// GenerateKernelDeclaration generates a complete kernel function declaration
func GenerateKernelDeclaration(kernelName string, views []ViewSpec, scalars []ScalarSpec) string {
	return fmt.Sprintf("@kernel void %s(\n\t%s\n)",
		kernelName, GenerateKernelSignature(views, scalars))
}

// TypeName returns the C type name for a DataType, or "" when unknown
func TypeName(dt DataType) string {
	switch dt {
	case Float32:
		return "float"
	case Float64:
		return "double"
	case INT32:
		return "int"
	case INT64:
		return "long"
	default:
		return ""
	}
}

// SizeOfType returns the size in bytes of a data type
func SizeOfType(dt DataType) int64 {
	switch dt {
	case Float32, INT32:
		return 4
	default:
		return 8
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
