// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package rest serves mode formulas, single evaluations and operator pipelines over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mlnoga/rgtools/internal/dispatch"
	"github.com/mlnoga/rgtools/internal/expr"
	"github.com/mlnoga/rgtools/internal/ops"
	"github.com/mlnoga/rgtools/internal/rg"
)

// Creates the router for the API, with handlers bound to the given capabilities
func NewRouter(caps dispatch.Capabilities) *gin.Engine {
	s := &server{caps: caps}
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.GET("/modes", s.getModes)
			v1.GET("/expr/:family/:mode", getExpr)
			v1.POST("/eval", postEval)
			v1.POST("/run", s.postRun)
		}
	}
	return r
}

// Listens and serves on the given address, e.g. ":8080"
func Serve(addr string, caps dispatch.Capabilities) error {
	return NewRouter(caps).Run(addr)
}

type server struct {
	caps dispatch.Capabilities
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// Returns the HTTP status for a mode error
func modeStatus(err error) int {
	if errors.Is(err, rg.ErrNeedsNativeBackend) {
		return http.StatusNotImplemented
	}
	return http.StatusBadRequest
}

type modeInfo struct {
	Family     string  `json:"family"`
	Mode       rg.Mode `json:"mode"`
	Expression bool    `json:"expression"`
	Native     bool    `json:"native"`
}

func (s *server) getModes(c *gin.Context) {
	var modes []modeInfo
	for _, f := range []rg.Family{rg.Repair, rg.RemoveGrain} {
		for m := rg.Mode(0); m <= rg.MaxMode; m++ {
			modes = append(modes, modeInfo{
				Family:     f.String(),
				Mode:       m,
				Expression: rg.CheckMode(f, m) == nil,
				Native:     s.caps.Native != nil && s.caps.Native.Supports(f, m),
			})
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"capabilities": s.caps,
		"native":       s.caps.NativeName(),
		"modes":        modes,
	})
}

func getExpr(c *gin.Context) {
	f, err := rg.ParseFamily(c.Param("family"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := strconv.Atoi(c.Param("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid mode '%s'", c.Param("mode"))})
		return
	}
	format, err := rg.ParseFormat(c.DefaultQuery("format", "float32"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text, err := rg.Text(f, rg.Mode(m), format)
	if err != nil {
		c.JSON(modeStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"family":  f.String(),
		"mode":    m,
		"format":  format.String(),
		"program": text,
	})
}

// One evaluation of a mode formula, or of a program in postfix text form
type evalArgs struct {
	Family             string           `json:"family"`
	Mode               rg.Mode          `json:"mode"`
	Program            string           `json:"program"`
	Subject            float64          `json:"subject"`
	Reference          float64          `json:"reference"`
	SubjectNeighbors   *rg.Neighborhood `json:"subjectNeighbors"`
	ReferenceNeighbors rg.Neighborhood  `json:"referenceNeighbors"`
	Bias               float64          `json:"bias"`
	Format             string           `json:"format"`
}

func postEval(c *gin.Context) {
	args := evalArgs{Family: "removegrain", Format: "float32"}
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := rg.ParseFamily(args.Family)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	format, err := rg.ParseFormat(args.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r := rg.Request{Family: f, Mode: args.Mode, Subject: args.Subject, Reference: args.Reference,
		SubjectNeighbors: args.SubjectNeighbors, ReferenceNeighbors: args.ReferenceNeighbors,
		Bias: args.Bias, Format: format}

	var v float64
	if args.Program != "" {
		p, err := expr.Parse(args.Program)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var env expr.Env
		r.Bind(&env)
		v = p.Eval(&env)
	} else if v, err = rg.Evaluate(&r); err != nil {
		c.JSON(modeStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"value":     v,
		"quantized": rg.Quantize(v, format),
	})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// Runs an operator pipeline given as JSON, streaming the log as plain text.
// Files are restricted to the current directory tree
func (s *server) postRun(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	op, err := ops.UnmarshalOperator(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logWriter := c.Writer
	logWriter.Header().Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)
	if err := printArgs(logWriter, "Pipeline:\n", "\n", op); err != nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}

	ctx := ops.NewContext(&syncWriter{w: logWriter}, s.caps)
	fs, err := ops.Run(op, ctx)
	if err != nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	} else {
		fmt.Fprintf(logWriter, "Done, %d frames.\n", len(fs))
	}
	logWriter.Flush()
}
