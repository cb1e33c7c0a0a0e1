package theme

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/themekit/internal/expression"
)

type mapResolver map[Descriptor]*Definition

func (m mapResolver) Resolve(d Descriptor) (*Definition, error) {
	def, ok := m[d]
	if !ok {
		return nil, NewNotFoundError(d, nil)
	}
	return def, nil
}

func (m mapResolver) add(defs ...*Definition) mapResolver {
	for _, def := range defs {
		m[def.Descriptor()] = def
	}
	return m
}

func mustBuild(t *testing.T, b *Builder) *Definition {
	t.Helper()
	def, err := b.Build()
	require.NoError(t, err)
	return def
}

func desc(raw string) Descriptor { return MustParseDescriptor(raw) }

func loc(line int) Location { return Location{File: "themes.yaml", Line: line} }

func TestAttributeDefsWithoutExtends(t *testing.T) {
	t.Parallel()

	def := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:t1")).
		AddAttribute(NewAttribute("color", "red", loc(2))).
		AddAttribute(NewAttribute("size", "", loc(3))).
		AddAttribute(NewAttribute("border", "1px", loc(4))))

	attrs, err := def.AttributeDefs(nil)
	require.NoError(t, err)
	require.True(t, attrs.Equal(def.OwnAttributes()))
	require.Equal(t, []string{"color", "size", "border"}, attrs.Names())

	value, ok, err := def.Variable(nil, "color")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "red", value)

	value, ok, err = def.Variable(nil, "size")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "", value)
}

func TestAttributeDefsMergesChainInOrder(t *testing.T) {
	t.Parallel()

	c := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:c")).
		AddAttribute(NewAttribute("c1", "c", Location{})).
		AddAttribute(NewAttribute("shared", "from-c", Location{})))
	b := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:b")).
		SetExtends(desc("ui:c")).
		AddAttribute(NewAttribute("b1", "b", Location{})))
	a := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:a")).
		SetExtends(desc("ui:b")).
		AddAttribute(NewAttribute("a1", "a", Location{})).
		AddAttribute(NewAttribute("shared", "from-a", Location{})))

	r := mapResolver{}.add(a, b, c)

	attrs, err := a.AttributeDefs(r)
	require.NoError(t, err)
	require.Equal(t, []string{"c1", "shared", "b1", "a1"}, attrs.Names())

	shared, ok := attrs.Get("shared")
	require.True(t, ok)
	value, _ := shared.Default()
	require.Equal(t, "from-a", value)

	// Parents are untouched by the overlay.
	cAttrs, err := c.AttributeDefs(r)
	require.NoError(t, err)
	cShared, _ := cAttrs.Get("shared")
	value, _ = cShared.Default()
	require.Equal(t, "from-c", value)
	require.Equal(t, 2, c.OwnAttributes().Len())
}

func TestAttributeDefsPropagatesResolutionFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("registry offline")
	b := mustBuild(t, NewBuilder().SetDescriptor(desc("ui:b")).SetExtends(desc("ui:missing")))
	a := mustBuild(t, NewBuilder().SetDescriptor(desc("ui:a")).SetExtends(desc("ui:b")))

	r := ResolverFunc(func(d Descriptor) (*Definition, error) {
		if d == b.Descriptor() {
			return b, nil
		}
		return nil, boom
	})

	attrs, err := a.AttributeDefs(r)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, attrs.Len())

	_, _, err = a.Variable(r, "anything")
	require.ErrorIs(t, err, boom)
}

func TestVariableMissingIsNotAnError(t *testing.T) {
	t.Parallel()

	parent := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:base")).
		AddAttribute(NewAttribute("color", "red", Location{})))
	child := mustBuild(t, NewBuilder().SetDescriptor(desc("ui:child")).SetExtends(parent.Descriptor()))
	r := mapResolver{}.add(parent, child)

	for _, def := range []*Definition{parent, child} {
		value, ok, err := def.Variable(r, "missing")
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, value)
	}

	value, ok, err := child.Variable(r, "color")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "red", value)
}

func TestValidateDefinition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		builder  *Builder
		wantCode ErrorCode
		subject  string
	}{
		{
			name: "defaults present",
			builder: NewBuilder().
				SetDescriptor(desc("ui:ok")).
				AddAttribute(NewAttribute("color", "red", Location{})).
				AddAttribute(NewAttribute("empty", "", Location{})).
				AddOverride(NewOverride("inherited", "{!color}", Location{})),
		},
		{
			name: "missing default",
			builder: NewBuilder().
				SetDescriptor(desc("ui:t5")).
				AddAttribute(NewAttribute("color", "red", Location{})).
				AddAttribute(NewAttributeWithoutDefault("spacing", loc(7))),
			wantCode: ErrCodeMissingDefault,
			subject:  "spacing",
		},
		{
			name: "malformed default",
			builder: NewBuilder().
				SetDescriptor(desc("ui:bad")).
				AddAttribute(NewAttribute("border", "1px {!color", Location{})),
			wantCode: ErrCodeInvalidValue,
			subject:  "border",
		},
		{
			name: "malformed override",
			builder: NewBuilder().
				SetDescriptor(desc("ui:bad")).
				AddOverride(NewOverride("color", "{!}", Location{})),
			wantCode: ErrCodeInvalidValue,
			subject:  "color",
		},
		{
			name: "extends is not consulted",
			builder: NewBuilder().
				SetDescriptor(desc("ui:self")).
				SetExtends(desc("ui:self")).
				AddOverride(NewOverride("nowhere", "x", Location{})),
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			def := mustBuild(t, tc.builder)
			err := def.ValidateDefinition()
			if tc.wantCode == "" {
				require.NoError(t, err)
				return
			}

			var domainErr *DomainError
			require.ErrorAs(t, err, &domainErr)
			require.Equal(t, tc.wantCode, domainErr.Code)
			require.Equal(t, tc.subject, domainErr.Subject)
			require.Equal(t, def.Descriptor(), domainErr.Descriptor)
		})
	}
}

func TestValidateDefinitionMissingDefaultCarriesLocation(t *testing.T) {
	t.Parallel()

	def := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:t5")).
		SetLocation(loc(1)).
		AddAttribute(NewAttributeWithoutDefault("spacing", loc(7))))

	err := def.ValidateDefinition()
	require.ErrorIs(t, err, ErrMissingDefault)
	require.ErrorIs(t, err, &DomainError{Code: ErrCodeMissingDefault, Subject: "spacing"})
	require.NotErrorIs(t, err, &DomainError{Code: ErrCodeMissingDefault, Subject: "color"})

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, loc(7), domainErr.Location)
	require.Contains(t, err.Error(), "themes.yaml:7")
}

func TestValidateReferencesScenarios(t *testing.T) {
	t.Parallel()

	t1 := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:t1")).
		AddAttribute(NewAttribute("color", "red", Location{})))
	t2 := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:t2")).
		SetExtends(desc("ui:t1")).
		AddOverride(NewOverride("color", "blue", Location{})))
	t3 := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:t3")).
		SetExtends(desc("ui:t1")).
		AddOverride(NewOverride("size", "10px", Location{})))
	t4 := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:t4")).
		SetExtends(desc("ui:t4")))
	local := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:local")).
		SetExtends(desc("ui:t1")).
		AddAttribute(NewAttribute("size", "1px", Location{})).
		AddOverride(NewOverride("size", "2px", Location{})))
	orphan := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:orphan")).
		AddAttribute(NewAttribute("color", "red", Location{})).
		AddOverride(NewOverride("color", "blue", Location{})))
	dangling := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:dangling")).
		SetExtends(desc("ui:nowhere")))

	r := mapResolver{}.add(t1, t2, t3, t4, local, orphan, dangling)

	cases := []struct {
		name     string
		def      *Definition
		wantCode ErrorCode
		subject  string
	}{
		{name: "no extends and no overrides", def: t1},
		{name: "override of inherited attribute", def: t2},
		{name: "override target absent from chain", def: t3, wantCode: ErrCodeOverrideNotInherited, subject: "size"},
		{name: "self extension", def: t4, wantCode: ErrCodeSelfExtension, subject: "ui:t4"},
		{name: "own attribute does not legitimize override", def: local, wantCode: ErrCodeOverrideNotInherited, subject: "size"},
		{name: "override without extends", def: orphan, wantCode: ErrCodeOverrideNotInherited, subject: "color"},
		{name: "unresolvable extends", def: dangling, wantCode: ErrCodeNotFound, subject: "ui:nowhere"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.def.ValidateReferences(r)
			if tc.wantCode == "" {
				require.NoError(t, err)
				return
			}
			var domainErr *DomainError
			require.ErrorAs(t, err, &domainErr)
			require.Equal(t, tc.wantCode, domainErr.Code)
			require.Equal(t, tc.subject, domainErr.Subject)
			require.Equal(t, tc.def.Descriptor(), domainErr.Descriptor)
		})
	}

	// Overrides are stored, not applied.
	value, ok, err := t2.Variable(r, "color")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "red", value)
}

func TestValidateReferencesNotFoundWrapsResolverError(t *testing.T) {
	t.Parallel()

	boom := errors.New("lookup failed")
	def := mustBuild(t, NewBuilder().SetDescriptor(desc("ui:a")).SetExtends(desc("ui:b")))

	err := def.ValidateReferences(ResolverFunc(func(Descriptor) (*Definition, error) {
		return nil, boom
	}))
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, boom)

	err = def.ValidateReferences(nil)
	require.Equal(t, ErrCodeNotFound, CodeOf(err))
}

func TestValidateReferencesOverrideFromDeepAncestor(t *testing.T) {
	t.Parallel()

	root := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:root")).
		AddAttribute(NewAttribute("radius", "4px", Location{})))
	mid := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:mid")).
		SetExtends(root.Descriptor()).
		AddAttribute(NewAttribute("accent", "teal", Location{})))
	leaf := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:leaf")).
		SetExtends(mid.Descriptor()).
		AddOverride(NewOverride("radius", "{!accent}", Location{})).
		AddOverride(NewOverride("accent", "navy", Location{})))

	r := mapResolver{}.add(root, mid, leaf)
	require.NoError(t, leaf.ValidateDefinition())
	require.NoError(t, leaf.ValidateReferences(r))
}

func TestValidateReferencesValueReferences(t *testing.T) {
	t.Parallel()

	base := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:base")).
		AddAttribute(NewAttribute("color", "red", Location{})))
	good := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:good")).
		SetExtends(base.Descriptor()).
		AddAttribute(NewAttribute("border", "1px solid {!color}", Location{})))
	unknown := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:unknown")).
		AddAttribute(NewAttribute("border", "1px solid {!color}", loc(3))))
	self := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:self-ref")).
		AddAttribute(NewAttribute("color", "{!color}", Location{})))

	r := mapResolver{}.add(base, good, unknown, self)

	require.NoError(t, good.ValidateReferences(r))

	err := unknown.ValidateReferences(r)
	require.ErrorIs(t, err, ErrInvalidReference)
	var refErr *expression.ReferenceError
	require.ErrorAs(t, err, &refErr)
	require.Equal(t, "color", refErr.Name)

	err = self.ValidateReferences(r)
	require.ErrorIs(t, err, ErrInvalidReference)
	require.ErrorAs(t, err, &refErr)
	require.True(t, refErr.Self)
}

func TestIndirectCycleIsDetected(t *testing.T) {
	t.Parallel()

	a := mustBuild(t, NewBuilder().SetDescriptor(desc("ui:a")).SetExtends(desc("ui:b")))
	b := mustBuild(t, NewBuilder().SetDescriptor(desc("ui:b")).SetExtends(desc("ui:a")))
	x := mustBuild(t, NewBuilder().SetDescriptor(desc("ui:x")).SetExtends(desc("ui:a")))
	r := mapResolver{}.add(a, b, x)

	_, err := a.AttributeDefs(r)
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, ErrCodeCyclicExtension, domainErr.Code)
	require.Equal(t, []Descriptor{desc("ui:a"), desc("ui:b"), desc("ui:a")}, domainErr.Path)

	err = a.ValidateReferences(r)
	require.ErrorIs(t, err, ErrCyclicExtension)

	_, err = x.AttributeDefs(r)
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, []Descriptor{desc("ui:a"), desc("ui:b"), desc("ui:a")}, domainErr.Path)

	require.ErrorIs(t, x.ValidateReferences(r), ErrCyclicExtension)
}

func TestSelfExtensionDuringMergeIsACycle(t *testing.T) {
	t.Parallel()

	def := mustBuild(t, NewBuilder().SetDescriptor(desc("ui:t4")).SetExtends(desc("ui:t4")))
	_, err := def.AttributeDefs(mapResolver{}.add(def))
	require.ErrorIs(t, err, ErrCyclicExtension)
}

func TestAppendDependencies(t *testing.T) {
	t.Parallel()

	child := mustBuild(t, NewBuilder().SetDescriptor(desc("ui:child")).SetExtends(desc("ui:base")))
	root := mustBuild(t, NewBuilder().SetDescriptor(desc("ui:base")))

	deps := NewDependencies()
	child.AppendDependencies(deps)
	child.AppendDependencies(deps)
	root.AppendDependencies(deps)

	require.Equal(t, 1, deps.Len())
	require.True(t, deps.Has(desc("ui:base")))
	require.Equal(t, []Descriptor{desc("ui:base")}, deps.List())
}

func TestDefinitionIsSafeForConcurrentReads(t *testing.T) {
	t.Parallel()

	base := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:base")).
		AddAttribute(NewAttribute("color", "red", Location{})))
	child := mustBuild(t, NewBuilder().
		SetDescriptor(desc("ui:child")).
		SetExtends(base.Descriptor()).
		AddAttribute(NewAttribute("size", "2px", Location{})).
		AddOverride(NewOverride("color", "blue", Location{})))
	r := mapResolver{}.add(base, child)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attrs, err := child.AttributeDefs(r)
			if err != nil || attrs.Len() != 2 {
				t.Errorf("unexpected merge result: %v %d", err, attrs.Len())
			}
			if err := child.ValidateReferences(r); err != nil {
				t.Errorf("validate: %v", err)
			}
			_ = child.Hash()
		}()
	}
	wg.Wait()
}
