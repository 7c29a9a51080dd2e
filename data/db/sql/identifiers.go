package sql

// isSafeIdentifier 判断表名/列名是否只含 [A-Za-z0-9_] 且不以数字开头
//
// 允许 table.column 形式。构建器拼接的标识符均来自代码常量，此处只拦截明显的注入片段。
func isSafeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	segStart := true
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch == '.':
			if segStart {
				return false
			}
			segStart = true
			continue
		case ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z'):
		case ch >= '0' && ch <= '9':
			if segStart {
				return false
			}
		default:
			return false
		}
		segStart = false
	}
	return !segStart
}
