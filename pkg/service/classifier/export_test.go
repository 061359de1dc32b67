package classifier

import "github.com/m-mizutani/gollem"

func ResponseSchema(c *Client) *gollem.Parameter {
	return c.responseSchema()
}
