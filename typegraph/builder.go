// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package typegraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-async-trace/futurescope/diestream"
	"github.com/go-async-trace/futurescope/internal/lineprog"
)

// An Index is the frozen, immutable result of Build: an append-only
// arena of TypeRecords plus a type_id -> record side map, per the
// "type-id graph" design note.
type Index struct {
	records []*TypeRecord
	byID    map[string]*TypeRecord
	byName  map[string]*TypeRecord
}

// All returns every TypeRecord in the index, in the order
// encountered in the DIE stream.
func (ix *Index) All() []*TypeRecord { return ix.records }

// Lookup resolves a member's type_ref (a hex type-id, or UnknownType)
// against the index.
func (ix *Index) Lookup(typeID string) (*TypeRecord, bool) {
	t, ok := ix.byID[typeID]
	return t, ok
}

// ByName resolves the fallback lookup used when a FutureMapEntry has
// no type_id.
func (ix *Index) ByName(name string) (*TypeRecord, bool) {
	t, ok := ix.byName[name]
	return t, ok
}

// StateMachines returns every TypeRecord classified as state_machine
// or async_env, in index order.
func (ix *Index) StateMachines() []*TypeRecord {
	var out []*TypeRecord
	for _, t := range ix.records {
		if t.IsStateMachine() {
			out = append(out, t)
		}
	}
	return out
}

// A Builder consumes a DIE record stream and materializes an Index.
// It also counts malformed members it had to skip, matching the
// parse-level-defect error kind.
type Builder struct {
	SkippedMembers int
}

// Build runs the full algorithm in specification section 4.B over
// recs, which must be in stream order (as produced by diestream).
func Build(recs []diestream.Record) (*Index, error) {
	b := &Builder{}
	return b.Build(recs)
}

func (b *Builder) Build(recs []diestream.Record) (*Index, error) {
	ix := &Index{byID: make(map[string]*TypeRecord), byName: make(map[string]*TypeRecord)}

	var curFiles *lineprog.FileTable
	awaitingUnitName := false
	nameSeen := make(map[string]string) // raw name -> type_id of first occurrence

	i := 0
	for i < len(recs) {
		rec := &recs[i]

		if rec.Tag == diestream.TagCompileUnit {
			curFiles = lineprog.NewFileTable(rec.Attrs[diestream.AttrCompDir])
			awaitingUnitName = true
			i++
			continue
		}

		if rec.Tag == diestream.TagStructureType {
			end := blockEnd(recs, i)
			typeRec, membersSkipped := b.parseStruct(recs[i:end], curFiles)
			b.SkippedMembers += membersSkipped
			b.registerName(ix, nameSeen, typeRec)
			ix.records = append(ix.records, typeRec)
			ix.byID[typeRec.TypeID] = typeRec
			ix.byName[typeRec.Name] = typeRec

			// The struct's own AT_name also counts as a
			// file-table name occurrence, per 4.B.1.
			if name, ok := rec.Attrs[diestream.AttrName]; ok {
				b.consumeFileName(curFiles, &awaitingUnitName, name)
			}
			i = end
			continue
		}

		if name, ok := rec.Attrs[diestream.AttrName]; ok {
			b.consumeFileName(curFiles, &awaitingUnitName, name)
		}
		i++
	}

	return ix, nil
}

// consumeFileName implements the first-name-is-the-unit-skip rule.
func (b *Builder) consumeFileName(ft *lineprog.FileTable, awaiting *bool, name string) {
	if ft == nil {
		return
	}
	if *awaiting {
		*awaiting = false
		return
	}
	ft.Add(name)
}

// registerName implements the monomorphization uniqueness rule:
// if two types share a name and both have a type_id, the second is
// re-keyed as "name<0x{type_id}>".
func (b *Builder) registerName(ix *Index, nameSeen map[string]string, t *TypeRecord) {
	firstID, seen := nameSeen[t.Name]
	if !seen {
		nameSeen[t.Name] = t.TypeID
		return
	}
	if firstID != "" && t.TypeID != "" {
		t.Name = fmt.Sprintf("%s<0x%s>", t.Name, t.TypeID)
	}
}

// blockEnd returns the index just past the block owned by
// recs[start] (a structure_type record): every following record with
// depth strictly greater than recs[start].Depth.
func blockEnd(recs []diestream.Record, start int) int {
	depth := recs[start].Depth
	j := start + 1
	for j < len(recs) && recs[j].Depth > depth {
		j++
	}
	return j
}

func (b *Builder) parseStruct(block []diestream.Record, files *lineprog.FileTable) (*TypeRecord, int) {
	head := block[0]
	t := &TypeRecord{
		TypeID:         head.Offset,
		Name:           head.Attrs[diestream.AttrName],
		Size:           atoiOr0(head.Attrs[diestream.AttrByteSize]),
		Alignment:      atoiOr0(head.Attrs[diestream.AttrAlignment]),
		Classification: classify(head.Attrs[diestream.AttrName]),
	}

	var skipped int
	seenLoc := make(map[Location]bool)
	for _, rec := range block[1:] {
		if rec.Tag != diestream.TagMember {
			continue
		}
		m, ok := parseMember(rec, files)
		if !ok {
			skipped++
			continue
		}
		t.Members = append(t.Members, m)
		if m.DeclFile != "" && m.DeclLine != 0 {
			loc := Location{File: m.DeclFile, Line: m.DeclLine}
			if !seenLoc[loc] {
				seenLoc[loc] = true
				t.Locations = append(t.Locations, loc)
			}
		}
	}
	return t, skipped
}

func parseMember(rec diestream.Record, files *lineprog.FileTable) (MemberRecord, bool) {
	name, ok := rec.Attrs[diestream.AttrName]
	if !ok || name == "" {
		return MemberRecord{}, false
	}
	m := MemberRecord{
		Name:         name,
		Offset:       atoiOr0(rec.Attrs[diestream.AttrDataMemberLocation]),
		Alignment:    atoiOr0(rec.Attrs[diestream.AttrAlignment]),
		IsArtificial: rec.Attrs[diestream.AttrArtificial] != "",
		TypeRef:      UnknownType,
	}
	if ref, ok := rec.Attrs[diestream.AttrType]; ok && ref != "" {
		m.TypeRef = strings.ToLower(strings.TrimPrefix(ref, "0x"))
	}
	if files != nil {
		if idx, err := strconv.Atoi(rec.Attrs[diestream.AttrDeclFile]); err == nil {
			if path, ok := files.Resolve(idx); ok {
				m.DeclFile = path
			}
		}
	}
	m.DeclLine = atoiOr0(rec.Attrs[diestream.AttrDeclLine])
	return m, true
}

func atoiOr0(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
