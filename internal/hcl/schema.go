package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is the shape of one configuration file. Attributes are pointers so
// that absent ones can be told apart from zero values.
type fileRoot struct {
	Generation   *generationBlock   `hcl:"generation,block"`
	Canvas       *canvasBlock       `hcl:"canvas,block"`
	Collaborator *collaboratorBlock `hcl:"collaborator,block"`
	Publisher    *publisherBlock    `hcl:"publisher,block"`
	Remain       hcl.Body           `hcl:",remain"`
}

type generationBlock struct {
	MaxTurns *int `hcl:"max_turns,optional"`
	Branches *int `hcl:"branches,optional"`
	Goals    *int `hcl:"goals,optional"`
}

type canvasBlock struct {
	Width  *float64 `hcl:"width,optional"`
	Height *float64 `hcl:"height,optional"`
}

type collaboratorBlock struct {
	Model            *string  `hcl:"model,optional"`
	APIKey           *string  `hcl:"api_key,optional"`
	BaseURL          *string  `hcl:"base_url,optional"`
	Timeout          *string  `hcl:"timeout,optional"`
	Temperature      *float64 `hcl:"temperature,optional"`
	FailureThreshold *int     `hcl:"failure_threshold,optional"`
	CoolDown         *string  `hcl:"cool_down,optional"`
}

type publisherBlock struct {
	URL       *string `hcl:"url,optional"`
	Namespace *string `hcl:"namespace,optional"`
	Event     *string `hcl:"event,optional"`
}
