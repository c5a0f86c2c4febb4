package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/flockwork-sim/flockwork-sim/sim"
)

// readEdgeFile loads an edge list. See parseEdges for the format.
func readEdgeFile(path string) ([]sim.Edge, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return parseEdges(f)
}

// parseEdges reads one "i j" pair per line. Blank lines and lines starting with '#' are
// skipped; further columns (weights, timestamps) are ignored. It also returns the number of
// nodes implied by the largest index.
func parseEdges(r io.Reader) ([]sim.Edge, int, error) {
	var edges []sim.Edge
	maxNode := -1
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, 0, fmt.Errorf("line %d: want \"i j\", got %q", line, text)
		}
		i, err := parseNode(fields[0])
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
		j, err := parseNode(fields[1])
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
		edges = append(edges, sim.NewEdge(i, j))
		maxNode = max(maxNode, i, j)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return edges, maxNode + 1, nil
}

func parseNode(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("node %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("node %d is negative", v)
	}
	return v, nil
}
