package cli

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/urfave/cli/v2"

	"go.viam.com/ikchain/kinematics"
)

func (r *runner) schemaAction(c *cli.Context) error {
	schema := jsonschema.Reflect(&kinematics.ModelConfig{})
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
