package model

// AccessPolicy 每次检索请求携带的访问策略，由请求方的授权推导，不落库
type AccessPolicy struct {
	// 请求方的访问等级，文档的access_level不大于该值时可见
	Level int `json:"level"`

	// 请求方被授予的标签。文档标签为空，或与该集合有交集时可见
	Tags []string `json:"tags"`
}

// AllowsDocument 文档级可见性判断，与检索时的向量库过滤语义保持一致
func (p AccessPolicy) AllowsDocument(accessLevel int, tags []string) bool {
	if accessLevel > p.Level {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		for _, granted := range p.Tags {
			if t == granted {
				return true
			}
		}
	}
	return false
}
