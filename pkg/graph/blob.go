// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"sort"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

const (
	blobMagic   = "KTGR"
	blobVersion = uint16(1)
	blobHeader  = 4 + 2 + 4 + 4 + 4 // magic | version | node_count | edge_count | crc32
)

// Save serializes the graph to the §6 KTGR binary blob format and
// writes it to path via write-new-then-rename, matching the discipline
// used by pkg/storage and pkg/symbols.
func (g *Graph) Save(path string) error {
	const op = "graph.Save"
	g.mu.RLock()
	buf := g.encodeLocked()
	g.mu.RUnlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return kerrors.New(kerrors.IoFailed, "failed to write graph blob", err.Error(), "", err).WithOperation(op)
	}
	if err := os.Rename(tmp, path); err != nil {
		return kerrors.New(kerrors.IoFailed, "failed to finalize graph blob", err.Error(), "", err).WithOperation(op)
	}
	return nil
}

// Open loads a graph previously written by Save. A missing file yields
// an empty graph, not an error.
func Open(path string) (*Graph, error) {
	const op = "graph.Open"
	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, kerrors.New(kerrors.IoFailed, "failed to read graph blob", err.Error(), "", err).WithOperation(op)
	}
	return decodeBlob(buf)
}

func (g *Graph) encodeLocked() []byte {
	nodeIDs := make([]primitives.SymbolID, 0, len(g.nodes))
	for id := range g.nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i].Less(nodeIDs[j]) })

	var body bytes.Buffer
	for _, id := range nodeIDs {
		writeNode(&body, g.nodes[id])
	}
	for _, key := range g.edgeOrder {
		writeEdge(&body, g.edges[key])
	}

	header := make([]byte, blobHeader)
	copy(header[0:4], blobMagic)
	binary.LittleEndian.PutUint16(header[4:6], blobVersion)
	binary.LittleEndian.PutUint32(header[6:10], uint32(len(nodeIDs)))
	binary.LittleEndian.PutUint32(header[10:14], uint32(len(g.edgeOrder)))
	binary.LittleEndian.PutUint32(header[14:18], crc32.ChecksumIEEE(body.Bytes()))

	return append(header, body.Bytes()...)
}

func writeNode(buf *bytes.Buffer, n Node) {
	buf.Write(n.ID.Bytes())
	writeString(buf, n.Kind)
	writeString(buf, n.QualifiedName)
	writeString(buf, n.File.String())
	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], n.StartLine)
	buf.Write(tmp4[:])
	binary.LittleEndian.PutUint32(tmp4[:], n.EndLine)
	buf.Write(tmp4[:])
}

func writeEdge(buf *bytes.Buffer, e Edge) {
	buf.Write(e.From.Bytes())
	buf.Write(e.To.Bytes())
	buf.WriteByte(byte(e.Relation))
	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(e.Metadata)))
	buf.Write(tmp4[:])
	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeString(buf, k)
		writeString(buf, e.Metadata[k])
	}
}

func writeString(buf *bytes.Buffer, s string) {
	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(s)))
	buf.Write(tmp4[:])
	buf.WriteString(s)
}

// decodeBlob parses a graph blob, rejecting any version other than the
// one this package writes (no silent upgrade) and validating the
// crc32 checksum before trusting node or edge data.
func decodeBlob(buf []byte) (*Graph, error) {
	const op = "graph.decode_blob"
	if len(buf) < blobHeader {
		return nil, kerrors.New(kerrors.Corrupt, "graph blob too short", "", "", nil).WithOperation(op)
	}
	if string(buf[0:4]) != blobMagic {
		return nil, kerrors.New(kerrors.Corrupt, "graph blob bad magic", "",
			"the file is not a KotaDB graph blob", nil).WithOperation(op)
	}
	version := binary.LittleEndian.Uint16(buf[4:6])
	if version != blobVersion {
		return nil, kerrors.New(kerrors.Corrupt, "graph blob unsupported version", "",
			"refuse to silently upgrade; rebuild the graph with the current version", nil).WithOperation(op)
	}
	nodeCount := binary.LittleEndian.Uint32(buf[6:10])
	edgeCount := binary.LittleEndian.Uint32(buf[10:14])
	wantCRC := binary.LittleEndian.Uint32(buf[14:18])

	body := buf[blobHeader:]
	if crc32.ChecksumIEEE(body) != wantCRC {
		return nil, kerrors.New(kerrors.Corrupt, "graph blob checksum mismatch", "", "", nil).WithOperation(op)
	}

	r := bytes.NewReader(body)
	g := New()
	for i := uint32(0); i < nodeCount; i++ {
		n, err := readNode(r, op)
		if err != nil {
			return nil, err
		}
		g.nodes[n.ID] = n
	}
	for i := uint32(0); i < edgeCount; i++ {
		e, err := readEdge(r, op)
		if err != nil {
			return nil, err
		}
		g.storeEdgeLocked(e)
	}
	return g, nil
}

func readNode(r *bytes.Reader, op string) (Node, error) {
	var id [16]byte
	if _, err := readFull(r, id[:]); err != nil {
		return Node{}, corrupt(op, "graph blob node id truncated", err)
	}
	symID, err := primitives.SymbolIDFromBytes(id[:])
	if err != nil {
		return Node{}, corrupt(op, "graph blob node has invalid id", err)
	}
	kind, err := readString(r, op)
	if err != nil {
		return Node{}, err
	}
	qualName, err := readString(r, op)
	if err != nil {
		return Node{}, err
	}
	filePath, err := readString(r, op)
	if err != nil {
		return Node{}, err
	}
	path, err := primitives.NewPath(filePath)
	if err != nil {
		return Node{}, corrupt(op, "graph blob node has invalid path", err)
	}
	var tmp4 [4]byte
	if _, err := readFull(r, tmp4[:]); err != nil {
		return Node{}, corrupt(op, "graph blob node start_line truncated", err)
	}
	start := binary.LittleEndian.Uint32(tmp4[:])
	if _, err := readFull(r, tmp4[:]); err != nil {
		return Node{}, corrupt(op, "graph blob node end_line truncated", err)
	}
	end := binary.LittleEndian.Uint32(tmp4[:])
	return Node{ID: symID, Kind: kind, QualifiedName: qualName, File: path, StartLine: start, EndLine: end}, nil
}

func readEdge(r *bytes.Reader, op string) (Edge, error) {
	var fromBytes, toBytes [16]byte
	if _, err := readFull(r, fromBytes[:]); err != nil {
		return Edge{}, corrupt(op, "graph blob edge from-id truncated", err)
	}
	if _, err := readFull(r, toBytes[:]); err != nil {
		return Edge{}, corrupt(op, "graph blob edge to-id truncated", err)
	}
	from, err := primitives.SymbolIDFromBytes(fromBytes[:])
	if err != nil {
		return Edge{}, corrupt(op, "graph blob edge has invalid from-id", err)
	}
	to, err := primitives.SymbolIDFromBytes(toBytes[:])
	if err != nil {
		return Edge{}, corrupt(op, "graph blob edge has invalid to-id", err)
	}
	relByte, err := r.ReadByte()
	if err != nil {
		return Edge{}, corrupt(op, "graph blob edge relation truncated", err)
	}
	relation := Relation(relByte)
	if !validRelation(relation) {
		return Edge{}, corrupt(op, "graph blob edge has invalid relation", nil)
	}
	var tmp4 [4]byte
	if _, err := readFull(r, tmp4[:]); err != nil {
		return Edge{}, corrupt(op, "graph blob edge metadata count truncated", err)
	}
	count := binary.LittleEndian.Uint32(tmp4[:])
	var metadata map[string]string
	if count > 0 {
		metadata = make(map[string]string, count)
		for i := uint32(0); i < count; i++ {
			k, err := readString(r, op)
			if err != nil {
				return Edge{}, err
			}
			v, err := readString(r, op)
			if err != nil {
				return Edge{}, err
			}
			metadata[k] = v
		}
	}
	return Edge{From: from, To: to, Relation: relation, Metadata: metadata}, nil
}

func readString(r *bytes.Reader, op string) (string, error) {
	var tmp4 [4]byte
	if _, err := readFull(r, tmp4[:]); err != nil {
		return "", corrupt(op, "graph blob string length truncated", err)
	}
	n := binary.LittleEndian.Uint32(tmp4[:])
	strBuf := make([]byte, n)
	if _, err := readFull(r, strBuf); err != nil {
		return "", corrupt(op, "graph blob string data truncated", err)
	}
	return string(strBuf), nil
}

func readFull(r *bytes.Reader, p []byte) (int, error) {
	n := 0
	for n < len(p) {
		m, err := r.Read(p[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func corrupt(op, msg string, cause error) error {
	var causeStr string
	if cause != nil {
		causeStr = cause.Error()
	}
	return kerrors.New(kerrors.Corrupt, msg, causeStr, "", cause).WithOperation(op)
}
