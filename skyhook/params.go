package skyhook

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Decodes node parameters into params.
// Params may be YAML or JSON (JSON is a subset of YAML), so structs need yaml tags.
// Fields missing from the encoded parameters keep the values already in params,
// which lets callers fill in defaults first.
func DecodeParams(node ExecNode, params interface{}) error {
	if node.Params == "" {
		return nil
	}
	if err := yaml.UnmarshalStrict([]byte(node.Params), params); err != nil {
		return fmt.Errorf("bad parameters for %s: %v", node.Op, err)
	}
	return nil
}

// Job file listing nodes to run in order.
//
//	nodes:
//	  - name: dota-train
//	    op: dota2coco
//	    params:
//	      root: /data/dota/train1024
//	      out_json: /data/dota/train1024.json
type JobFile struct {
	Nodes []struct {
		Name string `yaml:"name"`
		Op string `yaml:"op"`
		Params yaml.MapSlice `yaml:"params"`
	} `yaml:"nodes"`
}

func ReadJobFile(fname string) ([]ExecNode, error) {
	bytes, err := ioutil.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var job JobFile
	if err := yaml.Unmarshal(bytes, &job); err != nil {
		return nil, fmt.Errorf("error decoding job file %s: %v", fname, err)
	}
	var nodes []ExecNode
	for i, n := range job.Nodes {
		if n.Op == "" {
			return nil, fmt.Errorf("node %d in %s has no op", i, fname)
		}
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", n.Op, i)
		}
		var params string
		if len(n.Params) > 0 {
			encoded, err := yaml.Marshal(n.Params)
			if err != nil {
				return nil, err
			}
			params = string(encoded)
		}
		nodes = append(nodes, ExecNode{
			Name: name,
			Op: n.Op,
			Params: params,
		})
	}
	return nodes, nil
}
