package pack

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/ids"
	"github.com/respack/respack/internal/resource"
)

// writeHeaders emits every requested header artifact plus the implicit
// ResourceTable.txt in the output root. Unsupported extensions warn and are
// skipped.
func writeHeaders(output string, headerPaths []string, assigned []ids.Assigned) error {
	paths := append([]string(nil), headerPaths...)
	paths = append(paths, filepath.Join(output, "ResourceTable.txt"))
	logger := slog.Default().With("component", "header")
	for _, path := range paths {
		var content string
		switch filepath.Ext(path) {
		case ".txt":
			content = textHeader(assigned)
		case ".h":
			content = cppHeader(assigned)
		case ".js":
			content = jsHeader(assigned)
		default:
			logger.Warn("unsupported header file format", "path", path)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return diag.New(diag.CodeCreateFile, filepath.Dir(path), err.Error())
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return diag.New(diag.CodeCreateFile, path, err.Error())
		}
	}
	return nil
}

// textHeader renders "type name 0xXXXXXXXX" lines.
func textHeader(assigned []ids.Assigned) string {
	var b strings.Builder
	for i, a := range assigned {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s 0x%08x", resource.TypeString(a.Type), a.Name, a.ID)
	}
	return b.String()
}

// cppHeader renders the C++ constant header.
func cppHeader(assigned []ids.Assigned) string {
	var b strings.Builder
	b.WriteString("#ifndef RESOURCE_TABLE_H\n")
	b.WriteString("#define RESOURCE_TABLE_H\n\n")
	b.WriteString("#include<stdint.h>\n\n")
	b.WriteString("namespace OHOS {\n")
	for _, a := range assigned {
		name := strings.ToUpper(resource.TypeString(a.Type) + "_" + a.Name)
		fmt.Fprintf(&b, "const int32_t %s = 0x%08x;\n", name, a.ID)
	}
	b.WriteString("}\n")
	b.WriteString("#endif")
	return b.String()
}

// jsHeader renders the JS default-export object, grouping names by type.
func jsHeader(assigned []ids.Assigned) string {
	var b strings.Builder
	b.WriteString("export default {\n")
	currentType := ""
	for _, a := range assigned {
		typeName := resource.TypeString(a.Type)
		if typeName != currentType {
			if currentType != "" {
				b.WriteString("\n    },\n")
			}
			fmt.Fprintf(&b, "    %s : {\n", typeName)
			currentType = typeName
		} else {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "        %s : %d", a.Name, a.ID)
	}
	if currentType != "" {
		b.WriteString("\n    }\n")
	}
	b.WriteString("}\n")
	return b.String()
}
