// Package client speaks the level server protocol: the client announces its
// name, receives the level on stdin, and streams one joint-action row per
// line, reading the server's reply after each row. Everything the server
// should ignore is prefixed with '#'.
package client

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/elektrokombinacija/warehouse-mapf/internal/algo"
	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
	"github.com/elektrokombinacija/warehouse-mapf/internal/levelio"
)

// ClientName is announced to the server before the level is read.
const ClientName = "WarehousePlanner"

// SolveFunc plans a level. The client does not care which solver backs it.
type SolveFunc func(level *core.Level) *algo.Result

// Run performs the full exchange on the given streams. A planning failure is
// a normal terminal outcome (the error is nil); only protocol and parse
// failures return errors.
func Run(in io.Reader, out io.Writer, solve SolveFunc, log *logrus.Entry) error {
	reader := bufio.NewReader(in)
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	if _, err := fmt.Fprintf(writer, "%s\n", ClientName); err != nil {
		return errors.Wrap(err, "sending client name")
	}
	if err := writer.Flush(); err != nil {
		return errors.Wrap(err, "sending client name")
	}

	level, err := levelio.Parse(reader)
	if err != nil {
		return err
	}
	log.WithField("level", level.String()).Info("level loaded")

	result := solve(level)
	if !result.Solved {
		log.WithFields(logrus.Fields{
			"reason":   string(result.Reason),
			"expanded": result.Stats.Expanded,
		}).Error("unable to solve level")
		return nil
	}
	log.WithFields(logrus.Fields{
		"length":       len(result.Plan),
		"sum_of_costs": result.SumOfCosts,
		"expanded":     result.Stats.Expanded,
		"elapsed":      result.Stats.Elapsed,
	}).Info("solution found")

	for _, row := range result.Plan {
		if _, err := fmt.Fprintf(writer, "%s\n", row.Format()); err != nil {
			return errors.Wrap(err, "sending joint action")
		}
		if err := writer.Flush(); err != nil {
			return errors.Wrap(err, "sending joint action")
		}
		// Consume the server's response so its stdin buffer never fills up.
		if _, err := reader.ReadString('\n'); err != nil && err != io.EOF {
			return errors.Wrap(err, "reading server response")
		}
	}
	return nil
}
