package ide

import (
	"encoding/xml"
	"os"
)

// node is a generic XML element. Children are emitted in insertion order,
// which MSBuild is sensitive to.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []*node
}

// element creates an element with attributes given as name/value pairs.
func element(name string, attrs ...string) *node {
	n := &node{XMLName: xml.Name{Local: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	return n
}

func (n *node) add(children ...*node) *node {
	n.Children = append(n.Children, children...)
	return n
}

// props adds one text child per name/value pair.
func (n *node) props(pairs ...string) *node {
	for i := 0; i+1 < len(pairs); i += 2 {
		child := element(pairs[i])
		child.Text = pairs[i+1]
		n.add(child)
	}
	return n
}

func writeXML(path string, root *node) error {
	data, err := xml.MarshalIndent(root, "", "\t")
	if err != nil {
		return err
	}
	data = append([]byte(xml.Header), data...)
	data = append(data, '\n')
	return os.WriteFile(path, data, 0666)
}
