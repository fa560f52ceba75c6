package output

import "fedsearch/internal/repository"

var runClass = repository.ClassDescriptor{ID: 7, Name: "RUN", Table: "run"}

func obj(domain repository.Domain, id int, name string) repository.Object {
	o := repository.Object{ID: id, Domain: domain, Class: runClass}
	if name != "" {
		o.Fields = map[string]any{"name": name}
	}
	return o
}
