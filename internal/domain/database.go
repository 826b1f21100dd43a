package domain

// Database — база данных в сервисе.
//
// Имя базы фиксированное (не зависит от даты), база переживает запуски.
type Database struct {
	Name      string `json:"name"`
	State     string `json:"state,omitempty"`
	Region    string `json:"region,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
	CreatedOn string `json:"created_on,omitempty"`
}

// Source — именованный исходник (schema / constraints), установленный в базу.
type Source struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

// SourceNames возвращает имена исходников.
func SourceNames(sources []Source) []string {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name)
	}
	return names
}
