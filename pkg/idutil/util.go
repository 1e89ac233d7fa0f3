package idutil

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out snowflake ids. It is safe for concurrent use.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a generator for node, which must be unique among
// running processes.
func NewGenerator(node int64) (*Generator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}

	return &Generator{node: n}, nil
}

func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}

// Time returns the moment id was generated, with millisecond precision.
func Time(id int64) time.Time {
	return time.UnixMilli(snowflake.ParseInt64(id).Time())
}
