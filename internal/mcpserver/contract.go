package mcpserver

// ProjectFormatContract describes the .dou project file format that LLM
// consumers should follow when creating projects.
const ProjectFormatContract = `# dou Project Format

A project is a single UTF-8 JSON file with the ` + "`.dou`" + ` extension.

## Structure

` + "```" + `json
{
  "version": "1.0",
  "nodes": {
    "intro": {
      "title": "Intro",
      "text": "What the project is about.",
      "pos_x": 100, "pos_y": 100,
      "width": 200, "height": 150,
      "color": "Yellow",
      "order_number": 1
    },
    "detail": {
      "title": "Detail",
      "text": "Follows the intro.",
      "pos_x": 400, "pos_y": 100,
      "width": 200, "height": 150,
      "order_number": 2
    }
  },
  "connections": [
    {"start_node": "intro", "end_node": "detail", "edge_type": "right"}
  ]
}
` + "```" + `

## Rules

1. **` + "`nodes`" + ` is required.** It maps a node id to its record. Use ` + "`{}`" + `
   for an empty project.
2. **Every node needs title, text, pos_x, pos_y, width and height.**
   A node missing any of them makes the whole file unreadable.
3. **` + "`color`" + ` is optional.** One of Red, Orange, Yellow, Green, Blue,
   Purple, Light Grey. Unknown names load as Yellow.
4. **` + "`order_number`" + ` is optional.** It is recomputed from the graph on load.
5. **Connections run from the output (right) socket of ` + "`start_node`" + `
   to the input (left) socket of ` + "`end_node`" + `.** A node has at most one
   outgoing and one incoming connection. Connections naming unknown nodes
   are dropped on load.
6. **` + "`edge_type`" + `** is one of left, right, top, bottom. It only affects
   how the curve is drawn; the default is right.

## Paths

A path starts at every node without an incoming connection and follows
outgoing connections until it ends or revisits a node. Paths are the unit
of prompt context: each node contributes ` + "`#N: title`" + ` followed by its text.
`
